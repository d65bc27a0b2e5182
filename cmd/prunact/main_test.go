package main

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetMocks() {
	osWriteFile = os.WriteFile
	osExit = os.Exit
}

func TestHandlePanic(t *testing.T) {
	defer resetMocks()

	t.Run("writes the panic log", func(t *testing.T) {
		var written string
		var path string
		exitCode := -1
		osWriteFile = func(name string, data []byte, _ os.FileMode) error {
			path, written = name, string(data)
			return nil
		}
		osExit = func(code int) { exitCode = code }

		func() {
			defer handlePanic()
			panic("tile vanished")
		}()

		assert.Equal(t, panicLogFile, path)
		assert.Contains(t, written, "panic: tile vanished")
		assert.Contains(t, written, "goroutine")
		assert.Equal(t, 2, exitCode)
	})

	t.Run("log write failure still exits", func(t *testing.T) {
		exitCode := -1
		osWriteFile = func(string, []byte, os.FileMode) error { return errors.New("read-only file system") }
		osExit = func(code int) { exitCode = code }

		func() {
			defer handlePanic()
			panic("boom")
		}()
		assert.Equal(t, 2, exitCode)
	})

	t.Run("no panic is a no-op", func(t *testing.T) {
		called := false
		osExit = func(int) { called = true }
		func() { defer handlePanic() }()
		require.False(t, called)
	})
}
