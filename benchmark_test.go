package main

import (
	"bytes"
	"testing"

	"github.com/klauspost/compress/zstd"
)

const benchW, benchH = 512, 512

func BenchmarkEncrypt(b *testing.B) {
	src := makeTestPixels(benchW, benchH)
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := Encrypt(src, benchW, benchH, "benchmark"); err != nil {
			b.Fatalf("encrypt failed: %v", err)
		}
	}
}

func BenchmarkEncryptSequential(b *testing.B) {
	src := makeTestPixels(benchW, benchH)
	c := Cipher{Workers: 1}
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := c.Encrypt(src, benchW, benchH, "benchmark"); err != nil {
			b.Fatalf("encrypt failed: %v", err)
		}
	}
}

func BenchmarkDecrypt(b *testing.B) {
	src := makeTestPixels(benchW, benchH)
	enc, err := Encrypt(src, benchW, benchH, "benchmark")
	if err != nil {
		b.Fatalf("encrypt failed: %v", err)
	}
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := Decrypt(enc, benchW, benchH, "benchmark"); err != nil {
			b.Fatalf("decrypt failed: %v", err)
		}
	}
}

func BenchmarkBuildPermutation(b *testing.B) {
	seq := LogisticSequence(0.4243353201986252, 3.5886732591963835, benchW*benchH)
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		BuildPermutation(seq)
	}
}

func BenchmarkKeystream(b *testing.B) {
	seq := LogisticSequence(0.9077500042310007, 3.7167847476051867, 4*benchW)
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		Keystream(seq)
	}
}

func BenchmarkWriteContainer(b *testing.B) {
	src := makeTestPixels(benchW, benchH)
	enc, err := Encrypt(src, benchW, benchH, "benchmark")
	if err != nil {
		b.Fatalf("encrypt failed: %v", err)
	}
	buf := &bytes.Buffer{}
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		buf.Reset()
		if err := WriteContainer(buf, enc, benchW, benchH, zstd.SpeedDefault); err != nil {
			b.Fatalf("container write failed: %v", err)
		}
	}
}
