// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-shamir.
//
// go-shamir is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package logger

import "context"

// NoOp discards every record. It is the default for library types
// constructed without a logger.
type NoOp struct{}

// NewNoOp returns a Logger that discards everything
func NewNoOp() Logger { return NoOp{} }

func (NoOp) Debug(string, ...Field)                         {}
func (NoOp) Info(string, ...Field)                          {}
func (NoOp) Warn(string, ...Field)                          {}
func (NoOp) Error(string, ...Field)                         {}
func (NoOp) DebugContext(context.Context, string, ...Field) {}
func (NoOp) InfoContext(context.Context, string, ...Field)  {}
func (NoOp) WarnContext(context.Context, string, ...Field)  {}
func (NoOp) ErrorContext(context.Context, string, ...Field) {}
func (n NoOp) With(...Field) Logger                         { return n }
func (n NoOp) WithError(error) Logger                       { return n }
