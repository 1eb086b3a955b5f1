// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package auth

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LoadSecrets reads all files in dir and returns a map of filename to
// trimmed contents. Each file is one secret: the filename is the key
// and the contents are the value. The supported key is "account-id".
//
// A missing directory is not an error; LoadSecrets returns an empty map.
// Unreadable files produce a warning on stderr but do not abort.
func LoadSecrets(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}
	return secrets, nil
}
