// MIT License
//
// Copyright (c) 2025 Mike Lane
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/mikelane/ghactions/internal/secretbox"
)

// ErrEmptyName is returned when a secret name or workflow ID is blank
var ErrEmptyName = errors.New("name must not be empty")

type encryptedSecret struct {
	EncryptedValue string `json:"encrypted_value"`
	KeyID          string `json:"key_id"`
}

// PublicKey gets the key secrets must be encrypted with before they are stored
func (c *Client) PublicKey(ctx context.Context, repo Repository) (*PublicKey, *Response, error) {
	p, err := repo.Path()
	if err != nil {
		return nil, nil, err
	}

	var key PublicKey
	resp, err := c.Get(ctx, p+"/actions/secrets/public-key", nil, &key)
	if err != nil {
		return nil, resp, err
	}
	return &key, resp, nil
}

// Secrets lists secret metadata for a repository. Values are never returned.
func (c *Client) Secrets(ctx context.Context, repo Repository, opts *ListOptions) (*Secrets, *Response, error) {
	p, err := repo.Path()
	if err != nil {
		return nil, nil, err
	}

	var secrets Secrets
	resp, err := c.Get(ctx, p+"/actions/secrets", opts, &secrets)
	if err != nil {
		return nil, resp, err
	}
	return &secrets, resp, nil
}

// Secret gets the metadata of a single secret
func (c *Client) Secret(ctx context.Context, repo Repository, name string) (*Secret, *Response, error) {
	p, err := secretPath(repo, name)
	if err != nil {
		return nil, nil, err
	}

	var secret Secret
	resp, err := c.Get(ctx, p, nil, &secret)
	if err != nil {
		return nil, resp, err
	}
	return &secret, resp, nil
}

// CreateOrUpdateSecret stores a value already encrypted with the repository
// public key identified by keyID. GitHub answers 201 on create and 204 on update.
func (c *Client) CreateOrUpdateSecret(ctx context.Context, repo Repository, name, keyID, encryptedValue string) (*Response, error) {
	p, err := secretPath(repo, name)
	if err != nil {
		return nil, err
	}

	return c.Put(ctx, p, &encryptedSecret{EncryptedValue: encryptedValue, KeyID: keyID}, nil)
}

// SetSecret fetches the repository public key, seals plaintext with it and stores the result
func (c *Client) SetSecret(ctx context.Context, repo Repository, name string, plaintext []byte) (*Response, error) {
	key, _, err := c.PublicKey(ctx, repo)
	if err != nil {
		return nil, fmt.Errorf("failed to get public key: %w", err)
	}

	sealed, err := secretbox.Seal(key.GetKey(), plaintext)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt secret %s: %w", name, err)
	}

	return c.CreateOrUpdateSecret(ctx, repo, name, key.GetKeyID(), sealed)
}

// DeleteSecret deletes a secret from a repository
func (c *Client) DeleteSecret(ctx context.Context, repo Repository, name string) (bool, error) {
	p, err := secretPath(repo, name)
	if err != nil {
		return false, err
	}
	return c.BooleanFromResponse(ctx, http.MethodDelete, p, nil)
}

func secretPath(repo Repository, name string) (string, error) {
	p, err := repo.Path()
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("secret %w", ErrEmptyName)
	}
	return p + "/actions/secrets/" + url.PathEscape(name), nil
}
