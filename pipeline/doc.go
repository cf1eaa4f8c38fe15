// Copyright 2025 Google LLC
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

// Package pipeline runs a task through a fixed sequence of role-specialized
// stages.
//
// Each [Stage] wraps a [Capability] that turns the accumulated [Context] into
// text. Stages run strictly one after another: stage i sees the task content,
// the additional information and the verbatim output of every stage before
// it. The pipeline never skips, retries or reorders a stage. The first stage
// failure halts the run.
//
// An optional [AcceptanceGate] judges the final output. Its [Verdict] is
// advisory: a REVISE verdict is reported with the result but never sends the
// task back through the pipeline.
//
// A run moves through the phases
//
//	CREATED -> RUNNING(0) -> ... -> RUNNING(n-1) -> COMPLETED
//
// with RUNNING(i) -> FAILED on a stage error. When a gate is configured it
// runs as RUNNING(n).
package pipeline
