package client_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/adamwoolhether/gems/client"
)

func TestCheckStatus(t *testing.T) {
	kinds := []error{
		client.ErrAuthentication,
		client.ErrAuthorization,
		client.ErrNotFound,
		client.ErrConflict,
		client.ErrValidation,
		client.ErrServer,
	}

	testCases := []struct {
		code int
		err  error
	}{
		{code: 200},
		{code: 201},
		{code: 204},
		{code: 299},
		{code: 100, err: client.ErrClient},
		{code: 301, err: client.ErrClient},
		{code: 304, err: client.ErrClient},
		{code: 400, err: client.ErrClient},
		{code: 401, err: client.ErrAuthentication},
		{code: 403, err: client.ErrAuthorization},
		{code: 404, err: client.ErrNotFound},
		{code: 409, err: client.ErrConflict},
		{code: 422, err: client.ErrValidation},
		{code: 429, err: client.ErrClient},
		{code: 500, err: client.ErrServer},
		{code: 599, err: client.ErrServer},
	}

	for _, tc := range testCases {
		t.Run(fmt.Sprint(tc.code), func(t *testing.T) {
			err := client.CheckStatus(tc.code, []byte("body"))
			if tc.err == nil {
				if err != nil {
					t.Fatalf("expected no error, got: %v", err)
				}
				return
			}

			if !errors.Is(err, tc.err) {
				t.Fatalf("exp err: %v, got: %v", tc.err, err)
			}

			// Only the mapped kind may match among the specific ones.
			for _, kind := range kinds {
				if kind != tc.err && errors.Is(err, kind) {
					t.Errorf("status %d also matched %v", tc.code, kind)
				}
			}

			if tc.code >= 500 && errors.Is(err, client.ErrClient) {
				t.Errorf("status %d matched ErrClient", tc.code)
			}
		})
	}
}

func TestErrorKinds(t *testing.T) {
	testCases := map[string]struct {
		err     error
		matches []error
		not     []error
	}{
		"network": {
			err:     &client.NetworkError{Method: "GET", URL: "https://rubygems.org", Err: errors.New("connection reset")},
			matches: []error{client.ErrNetwork},
			not:     []error{client.ErrTimeout, client.ErrDecode, client.ErrConfiguration},
		},
		"timeout": {
			err:     &client.NetworkError{Method: "GET", URL: "https://rubygems.org", Timeout: true, Err: context.DeadlineExceeded},
			matches: []error{client.ErrNetwork, client.ErrTimeout, context.DeadlineExceeded},
		},
		"decode": {
			err:     &client.DecodeError{Format: client.FormatJSON, Err: client.ErrEmptyBody},
			matches: []error{client.ErrDecode, client.ErrEmptyBody},
			not:     []error{client.ErrNetwork},
		},
		"config": {
			err:     &client.ConfigError{Field: "host", Err: errors.New("required")},
			matches: []error{client.ErrConfiguration},
			not:     []error{client.ErrClient},
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			for _, target := range tc.matches {
				if !errors.Is(tc.err, target) {
					t.Errorf("%v does not match %v", tc.err, target)
				}
			}
			for _, target := range tc.not {
				if errors.Is(tc.err, target) {
					t.Errorf("%v unexpectedly matches %v", tc.err, target)
				}
			}
		})
	}
}

func TestConfigError_Message(t *testing.T) {
	err := &client.ConfigError{Field: "host", Err: errors.New("required")}
	if got, exp := err.Error(), "configuration error: host: required"; got != exp {
		t.Errorf("expected %q, got %q", exp, got)
	}
}
