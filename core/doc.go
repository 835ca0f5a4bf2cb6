// Package core contains the DOI issuance contracts, domain types, and the
// minting orchestration. Registry and storage adapters depend on this package;
// core must not depend on the mds, transport, or store/sql adapters.
package core
