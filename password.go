package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const passwordEnv = "CHAOSIMG_PASSWORD"

var (
	errNoPassword       = errors.New("no password given: use -password, -password-file, " + passwordEnv + " or a terminal")
	errPasswordMismatch = errors.New("passwords do not match")
)

type passwordOptions struct {
	Value    string
	ValueSet bool
	File     string
	Confirm  bool
}

// promptFunc reads one secret after printing the given prompt.
type promptFunc func(prompt string) (string, error)

// resolvePassword picks the first available source: flag, file, environment,
// then the interactive prompt. prompt may be nil when there is no terminal.
func resolvePassword(opts passwordOptions, prompt promptFunc) (string, error) {
	if opts.ValueSet {
		return opts.Value, nil
	}
	if opts.File != "" {
		return readPasswordFile(opts.File)
	}
	if v, ok := os.LookupEnv(passwordEnv); ok {
		return v, nil
	}
	if prompt == nil {
		return "", errNoPassword
	}

	password, err := prompt("Password: ")
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	if opts.Confirm {
		confirm, err := prompt("Confirm password: ")
		if err != nil {
			return "", fmt.Errorf("failed to read password confirmation: %w", err)
		}
		if password != confirm {
			return "", errPasswordMismatch
		}
	}
	return password, nil
}

// readPasswordFile returns the file contents as UTF-8 with one trailing line
// ending removed. A UTF-8 or UTF-16 byte order mark is honoured and dropped.
func readPasswordFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open password file: %w", err)
	}
	defer f.Close()

	r := transform.NewReader(f, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read password file: %w", err)
	}

	s := string(data)
	s = strings.TrimSuffix(s, "\n")
	s = strings.TrimSuffix(s, "\r")
	return s, nil
}

// terminalPrompt returns a promptFunc reading from stdin without echo, or nil
// when stdin is not a terminal.
func terminalPrompt() promptFunc {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil
	}
	return func(prompt string) (string, error) {
		fmt.Fprint(os.Stderr, prompt)
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
}
