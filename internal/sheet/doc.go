// Package sheet reads shipment spreadsheets into core.Table values and
// writes the per-category export files.
//
// Readers are registered by file extension (.xlsx, .xlsm, .xls, .csv).
// Every cell comes back as text: numbers keep their digits exactly as stored
// and no date or currency formatting is applied. Rows are padded to the
// header width, so callers can index any column without bounds checks.
//
// The exporter drops the internal category column, repairs phone columns,
// and applies the warehouse print layout: Arial 10, left aligned and
// vertically centered, text number format, shrink-to-fit, width 10.
package sheet
