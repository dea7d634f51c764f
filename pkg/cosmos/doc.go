// Package cosmos implements the command set of the Cosmos application found
// on hardware signers: version query, public key and address derivation, and
// transaction signing over the chunked APDU exchange of package apdu.
//
// Replies are decoded into typed results. Signatures are parsed from strict
// DER and always returned in low-S form.
package cosmos
