// Package icudata obtains ICU data tables from the ICU data provider
// application as read-only shared memory.
//
// The table is an owned value: Initialize returns a *Data that stays
// mapped until Release. Nothing is cached at package level, so callers
// decide how long the table lives.
//
// Key Components:
//   - Initialize: requests a table by SHA-1 and maps it
//   - Data: the mapped table
//   - Provider: the serving side, used by the icu_data_provider example
//
// Example Usage:
//
//	data, err := icudata.Initialize(ctx, core, app.Shell(), sha1)
//	if err != nil {
//		return err
//	}
//	defer data.Release()
//	table := data.Bytes()
package icudata
