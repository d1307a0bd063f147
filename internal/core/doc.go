// Package core provides the business logic for shipment address routing.
//
// This package contains all domain logic independent of any UI or transport
// layer. It can be used by web handlers, the CLI, or tests without
// modification.
//
// # Architecture
//
// The package is organized around several key concepts:
//
//   - Rule Set: the fixed vocabulary (island names, postal markers, county and
//     district marker characters, phone column markers) that drives
//     classification. Loaded from YAML or taken from [DefaultRuleSet].
//   - Classifier: a pure function from one address string to a [Category].
//   - Column Resolver: a prioritized list of header matchers that locates the
//     address column in an uploaded table.
//   - Partition: the three-way split of a labeled table by category.
//   - Service: the entry point for load, classify and export actions, with a
//     per-session result cache and a run history.
//
// # Classification
//
// Rules are applied top to bottom, first match wins:
//
//  1. Absent input is NO_DISTRICT. Otherwise 台 becomes 臺 and the text is trimmed.
//  2. Any island or postal marker substring gives POST_OFFICE.
//  3. A district marker (optionally after a county marker) gives HAS_DISTRICT.
//  4. Everything else is NO_DISTRICT.
//
// # Session Lifecycle
//
// A session starts empty. [Service.LoadInput] stores a freshly parsed table
// and drops the previous run. [Service.Classify] labels the stored table and
// caches the result under a new run ID. Downloads read from that cache.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - FILE001-FILE005: File errors (size, unreadable, format, empty)
//   - COL001: Address column not found
//   - RUN001-RUN004: Session and run errors
//   - RATE001: Rate limiting
package core
