// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestLogFileUnset(t *testing.T) {
	t.Setenv(LogFileEnv, "")
	l := logContainer{level: zap.NewAtomicLevelAt(zapcore.InfoLevel)}
	core, err := l.getCombinedCore()
	if err != nil {
		t.Fatal(err)
	}
	if core == nil {
		t.Errorf("Expected a console core")
	}
}

func TestLogFileOpenFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "scbmc.log")
	t.Setenv(LogFileEnv, path)
	l := logContainer{level: zap.NewAtomicLevelAt(zapcore.InfoLevel)}
	core, err := l.getCombinedCore()
	if err == nil || !strings.Contains(err.Error(), path) {
		t.Errorf("Expected the open error for %s, got %v", path, err)
	}
	if core == nil {
		t.Errorf("Expected the console core to be kept")
	}
}

func TestLogFileWritesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scbmc.log")
	t.Setenv(LogFileEnv, path)
	l := logContainer{level: zap.NewAtomicLevelAt(zapcore.InfoLevel)}
	core, err := l.getCombinedCore()
	if err != nil {
		t.Fatal(err)
	}
	log := zap.New(core)
	log.Info("bus ready", zap.String("bus", "/dev/i2c-3"))
	_ = log.Sync()

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), `"msg":"bus ready"`) || !strings.Contains(string(b), `"bus":"/dev/i2c-3"`) {
		t.Errorf("Unexpected log file content %q", b)
	}
}
