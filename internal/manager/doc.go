// Package manager is the facade the game logic talks to. It wires one
// backend adapter to an availability gate and an admission scheduler:
//
//   - manager.go: Config, New, accessors, Ready and Close.
//   - ops.go: generation entry points (Narrate, Summarize, SummarizeBatch,
//     Closing, Invoke). Each consults the gate before submitting.
//   - policy.go: conversion of wire DTOs into scheduler policies and
//     narrative contexts.
//   - status_report.go: Status and the DTO views of gate, load and stats.
//   - errors.go: error helpers shared with the HTTP layer.
//
// Callers must treat an unavailable error as "try again later": nothing
// here substitutes fallback text.
package manager
