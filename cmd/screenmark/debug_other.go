//go:build !windows

package main

import "go.uber.org/zap"

func logDisplayDiagnostics(log *zap.Logger) {}
