// Package ir provides the foundational feed types shared by every other
// feedline package, plus the canonical encoding used for content-addressed
// identity.
//
// This package contains type definitions and encoding only. All other
// internal packages import ir; ir imports nothing internal. This keeps ir the
// foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Status data is owned by the status ledger; ir only names it
//   - Numbers in canonical JSON are integers, never floats
//   - All JSON tags use snake_case
//   - Logical clocks (seq) only, never wall-clock timestamps
package ir
