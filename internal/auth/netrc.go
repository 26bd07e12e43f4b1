package auth

import (
	"fmt"
	"os"
	"strings"
)

// ReadNetrcMachine scans a netrc file for the given machine and returns its
// login and password. found is false when the machine has no entry.
func ReadNetrcMachine(path, machine string) (login, password string, found bool, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", "", false, nil
		}
		return "", "", false, fmt.Errorf("read netrc: %w", err)
	}

	tokens := strings.Fields(string(data))
	inMachine := false
	for i := 0; i < len(tokens); i++ {
		switch tokens[i] {
		case "machine":
			if i+1 < len(tokens) {
				inMachine = tokens[i+1] == machine
				i++
			}
		case "default":
			inMachine = false
		case "login":
			if inMachine && i+1 < len(tokens) {
				login = tokens[i+1]
				found = true
				i++
			}
		case "password":
			if inMachine && i+1 < len(tokens) {
				password = tokens[i+1]
				found = true
				i++
			}
		}
	}
	return login, password, found, nil
}

// WriteNetrcMachine writes or replaces one machine's entry in a netrc file,
// leaving every other machine's lines untouched. The file ends up with
// owner-only permissions.
func WriteNetrcMachine(path, machine, login, password string) error {
	var kept []string
	if data, err := os.ReadFile(path); err == nil {
		skipping := false
		for _, line := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
			stripped := strings.TrimSpace(line)
			if strings.HasPrefix(stripped, "machine") {
				skipping = strings.Contains(stripped, machine)
				if skipping {
					continue
				}
			}
			if !skipping {
				kept = append(kept, line)
			}
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("read netrc: %w", err)
	}

	var b strings.Builder
	if len(kept) > 0 {
		b.WriteString(strings.Join(kept, "\n"))
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "machine %s\n    login %s\n    password %s\n", machine, login, password)

	if err := os.WriteFile(path, []byte(b.String()), 0o600); err != nil {
		return fmt.Errorf("write netrc: %w", err)
	}
	// WriteFile leaves pre-existing permissions alone, so tighten explicitly.
	if err := os.Chmod(path, 0o600); err != nil {
		return fmt.Errorf("chmod netrc: %w", err)
	}
	return nil
}
