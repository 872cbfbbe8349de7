package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
// In tests you can replace it with a stub to avoid touching the terminal.
var readPassword = term.ReadPassword

// GetSecret reads the secret to send. On a terminal the input is hidden;
// otherwise (piped input) it reads everything from the reader so
// `secureclip send < file` works.
//
// The returned byte slice should be wiped by the caller when no longer needed.
func GetSecret(reader io.Reader, w io.Writer) ([]byte, error) {
	if f, ok := reader.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if _, err := fmt.Fprint(w, "Enter secret (input is hidden): "); err != nil {
			return nil, err
		}
		secret, err := readPassword(int(f.Fd()))
		fmt.Fprintln(w)
		if err != nil {
			return nil, err
		}
		return secret, nil
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	return data, nil
}

// WaitForEnter blocks until the user presses Enter. EOF counts as
// confirmation so scripted use does not hang.
func WaitForEnter(reader io.Reader, w io.Writer, prompt string) error {
	if _, err := fmt.Fprint(w, prompt); err != nil {
		return err
	}
	_, err := bufio.NewReader(reader).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// trimSecretText drops trailing newlines from an interactively typed
// secret. Trimming happens in place so no stray copy survives.
func trimSecretText(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return b
}
