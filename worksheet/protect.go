// Copyright 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package worksheet

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/UNO-SOFT/sheetxml"
)

// ProtectionOptions relax the sheet protection. The zero value protects
// everything except cell selection.
type ProtectionOptions struct {
	AllowEditObjects        bool
	AllowEditScenarios      bool
	AllowFormatCells        bool
	AllowFormatColumns      bool
	AllowFormatRows         bool
	AllowInsertColumns      bool
	AllowInsertRows         bool
	AllowInsertHyperlinks   bool
	AllowDeleteColumns      bool
	AllowDeleteRows         bool
	AllowSort               bool
	AllowAutoFilter         bool
	AllowPivotTables        bool
	DenySelectLockedCells   bool
	DenySelectUnlockedCells bool
}

type protection struct {
	ProtectionOptions
	hash string
}

// Protect protects the sheet, with an optional password.
func (ws *Worksheet) Protect(password string, opts *ProtectionOptions) error {
	if n := utf8.RuneCountInString(password); n > 255 {
		return fmt.Errorf("password of %d characters: %w", n, sheetxml.ErrInvalidConfiguration)
	}
	p := protection{}
	if opts != nil {
		p.ProtectionOptions = *opts
	}
	if password != "" {
		p.hash = hashPassword(password)
	}
	ws.protection = &p
	return nil
}

// Unprotect removes the protection.
func (ws *Worksheet) Unprotect() { ws.protection = nil }

func (ws *Worksheet) Protected() bool { return ws.protection != nil }

// hashPassword is Excel's legacy 16 bit sheet password hash: each
// character is rotated left within 15 bits by its 1-based position, and
// the results are XORed together with the length and 0xCE4B.
func hashPassword(password string) string {
	var hash uint32
	n := 0
	for i, r := range []rune(password) {
		c := uint32(r) & 0x7fff
		k := uint((i + 1) % 15)
		hash ^= (c<<k | c>>(15-k)) & 0x7fff
		n++
	}
	hash ^= uint32(n)
	hash ^= 0xCE4B
	return strings.ToUpper(strconv.FormatUint(uint64(hash), 16))
}
