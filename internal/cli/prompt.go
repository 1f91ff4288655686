package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"
)

// ErrNoTerminal is returned when a credential is missing and cannot be
// prompted for.
var ErrNoTerminal = errors.New("stdin is not a terminal")

// Prompter asks the user for missing credentials.
type Prompter interface {
	Email() (string, error)
	Password(email string) (string, error)
}

type huhPrompter struct {
	in *os.File
}

func newHuhPrompter(in *os.File) *huhPrompter {
	return &huhPrompter{in: in}
}

func (p *huhPrompter) Email() (string, error) {
	if !term.IsTerminal(int(p.in.Fd())) {
		return "", fmt.Errorf("email required, pass --email: %w", ErrNoTerminal)
	}

	var email string
	err := huh.NewInput().
		Title("Email").
		Placeholder("you@gmail.com").
		Validate(required("email")).
		Value(&email).
		Run()
	return strings.TrimSpace(email), err
}

func (p *huhPrompter) Password(email string) (string, error) {
	if !term.IsTerminal(int(p.in.Fd())) {
		return "", fmt.Errorf("password required, pass --password: %w", ErrNoTerminal)
	}

	var password string
	err := huh.NewInput().
		Title("Password").
		Description(email).
		EchoMode(huh.EchoModePassword).
		Validate(required("password")).
		Value(&password).
		Run()
	return password, err
}

func required(name string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", name)
		}
		return nil
	}
}
