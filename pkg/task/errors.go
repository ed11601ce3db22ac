// Copyright 2026 Sage Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package task

// ErrorKind classifies a terminal failure for ExecutionOutcome reporting.
// Kinds, not types: callers switch on the enum rather than type-asserting
// a concrete error.
type ErrorKind string

const (
	ErrNone               ErrorKind = ""
	ErrConfiguration      ErrorKind = "configuration_error"
	ErrCredential         ErrorKind = "credential_error"
	ErrProviderTransient  ErrorKind = "provider_transient"
	ErrProviderPermanent  ErrorKind = "provider_permanent"
	ErrToolInvalidArgs    ErrorKind = "tool_invalid_arguments"
	ErrToolExecutionFail  ErrorKind = "tool_execution_failure"
	ErrToolTimeout        ErrorKind = "tool_timeout"
	ErrPermissionDenied   ErrorKind = "permission_denied"
	ErrCancelled          ErrorKind = "cancelled"
	ErrInternalFault      ErrorKind = "internal_fault"
)
