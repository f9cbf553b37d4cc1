// Package feature implements the time×feature×asset tensor store the LOB
// engine's feature sinks write into and the cross-sectional workers read
// from: a schema-driven dense layout, a reusable tensor pool with an
// explicit daily lifecycle, a per-worker progress fence, and on-disk
// persistence. The feature formulas themselves live outside this package.
package feature
