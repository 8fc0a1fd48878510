// Package holdings provides the types and the reconciliation logic used to
// snapshot investment-account holdings scraped from a brokerage web portal.
//
// The portal renders the same holdings twice, in a "value" view and in a
// "share" view. The core functionalities include:
//   - Reconciliation: merging both views into one normalized Holding per
//     name, with different rules for self-directed (DIY) and broker-managed
//     holdings.
//   - Cleanup: splitting profit/loss cells and computing missing values
//     with exact decimal arithmetic.
//   - Persistence: encoding holdings as JSON and CSV snapshots, with a fixed
//     column order, into a per-account directory tree.
//
// This package serves as the foundational logic for the `ees` command-line
// tool. Network access lives in package portal, HTML extraction in package
// scrape, and the end-to-end run in package pipeline.
package holdings
