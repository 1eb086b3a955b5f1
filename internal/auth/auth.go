// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package auth builds the authentication context attached to every index
// request. Credentials come from a bare account-id cookie, a JSON file of
// request headers, a saved curl command, or a .secrets/ directory.
package auth

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"regexp"
	"strings"
)

// accountCookie is the index's session cookie name.
const accountCookie = "aa_account_id2"

// secretAccountID is the key file read from the secrets directory.
const secretAccountID = "account-id"

// Context carries the headers and cookies applied to index requests.
// The zero value is a valid anonymous context.
type Context struct {
	Headers map[string]string
	Cookies map[string]string
}

// Apply sets the context's headers and cookies on req. Headers already
// present on the request are not overwritten.
func (c Context) Apply(req *http.Request) {
	for k, v := range c.Headers {
		if req.Header.Get(k) == "" {
			req.Header.Set(k, v)
		}
	}
	for k, v := range c.Cookies {
		req.AddCookie(&http.Cookie{Name: k, Value: v})
	}
}

// IsAnonymous reports whether the context carries no credentials.
func (c Context) IsAnonymous() bool {
	return len(c.Headers) == 0 && len(c.Cookies) == 0
}

// FromAccountID returns a context that authenticates with the account-id
// session cookie alone.
func FromAccountID(id string) Context {
	return Context{Cookies: map[string]string{accountCookie: id}}
}

// FromHeadersFile loads a context from a JSON object of header name to value.
func FromHeadersFile(path string) (Context, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Context{}, fmt.Errorf("reading headers file: %w", err)
	}
	headers := make(map[string]string)
	if err := json.Unmarshal(data, &headers); err != nil {
		return Context{}, fmt.Errorf("parsing headers file %s: %w", path, err)
	}
	return Context{Headers: headers}, nil
}

// curl commands saved from browser devtools carry headers as -H 'Name: value'
// and cookies as -b 'a=1; b=2'.
var (
	curlHeaderPattern = regexp.MustCompile(`-H\s+['"](.+?)['"]`)
	curlCookiePattern = regexp.MustCompile(`-b\s+['"](.+?)['"]`)
)

// FromCurlFile loads a context from a file containing a curl command.
func FromCurlFile(path string) (Context, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Context{}, fmt.Errorf("reading curl file: %w", err)
	}
	ctx := ParseCurl(string(data))
	if ctx.IsAnonymous() {
		return Context{}, fmt.Errorf("curl file %s contains no -H or -b arguments", path)
	}
	return ctx, nil
}

// ParseCurl extracts headers and cookies from a curl command string.
func ParseCurl(command string) Context {
	headers := make(map[string]string)
	for _, m := range curlHeaderPattern.FindAllStringSubmatch(command, -1) {
		name, value, ok := strings.Cut(m[1], ":")
		if !ok {
			continue
		}
		headers[strings.TrimSpace(name)] = strings.TrimSpace(value)
	}

	cookies := make(map[string]string)
	for _, m := range curlCookiePattern.FindAllStringSubmatch(command, -1) {
		for _, pair := range strings.Split(m[1], ";") {
			name, value, ok := strings.Cut(strings.TrimSpace(pair), "=")
			if !ok {
				continue
			}
			cookies[name] = value
		}
	}

	ctx := Context{}
	if len(headers) > 0 {
		ctx.Headers = headers
	}
	if len(cookies) > 0 {
		ctx.Cookies = cookies
	}
	return ctx
}

// Resolve builds the context from the configured sources, in precedence
// order: explicit account id, headers file, curl file, then an
// "account-id" key in the secrets directory. Missing sources fall
// through; an anonymous context is not an error.
func Resolve(accountID, headersFile, curlFile, secretsDir string) (Context, error) {
	switch {
	case accountID != "":
		return FromAccountID(accountID), nil
	case headersFile != "":
		return FromHeadersFile(headersFile)
	case curlFile != "":
		return FromCurlFile(curlFile)
	}

	secrets, err := LoadSecrets(secretsDir)
	if err != nil {
		return Context{}, err
	}
	if id, ok := secrets[secretAccountID]; ok {
		return FromAccountID(id), nil
	}
	return Context{}, nil
}
