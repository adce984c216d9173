// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package client implements the sync client runtime.
//
// It wires local storage, the document cache, the server adapter, the
// business services and the background workers into a single process
// lifecycle, and exposes the assembled services as the embedding surface for
// callers.
package client
