// Package query models the ordered filter sets attached to relation widgets
// and serialises them into the query string consumed by choices endpoints.
//
// A FilterSet keeps insertion order so the encoded output is deterministic:
// the declared restriction comes first and caller supplied extras overlay it,
// replacing values in place on key collision and appending new keys. Encode
// emits every key=value pair followed by one exclude=key marker per key, all
// joined with an HTML escaped ampersand so the result can be embedded in a
// data attribute verbatim.
package query
