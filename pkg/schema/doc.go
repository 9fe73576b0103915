/*
Package schema turns untrusted flow input into typed domain values.

It is the first gate of both the validator and the parser: shape and
required-field checking only. Cross-reference rules (dangling next ids,
duplicate ids, cycles) belong to the validator, which assumes a
schema-valid flow.
*/
package schema
