// # recordcsv: Typed Records To and From Localized CSV
//
// recordcsv converts between sequences of typed Go records and delimiter-separated text. Fields may hold the separator, quotes and line breaks; numbers and dates follow a configurable locale; columns are wired explicitly with closures or discovered from exported struct fields.
//
// # Features
//
// - Line-parsing state machine (`RowReader`) with multi-character separators, multi-line quoted fields, and `FormatError` values carrying the line and character of malformed input.
// - Escaping writer (`RowWriter`) that quotes a field only when it holds the separator, a quote, or a line break.
// - Column model (`Column`, `ColumnCollection`) identified by index or header, readable, writable, or both.
// - Locale-aware conversion engine (`Converter`, `Registry`) for numbers, booleans, times, durations, UUIDs, text marshalers and struct literals.
// - Typed `Writer` and `Reader` with BOM handling, transcoding via `golang.org/x/text`, and YAML configuration profiles.
//
// # Getting Started
//
//	cfg := recordcsv.NewConfiguration()
//	cfg.SetLocale(recordcsv.MustLocale("fr-FR"))
//	buf, err := recordcsv.ToCSV(people, cfg).ToBuffer(ctx)
//
//	r, err := recordcsv.NewReader[Person](buf, cfg)
//	for p, err := range r.Records(ctx) {
//		...
//	}
package recordcsv
