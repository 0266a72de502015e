// Package export writes a pipeline Artifact to the on-disk formats the
// downstream SCAD/G-code stages and session store consume: the
// placement.json/routing.json dict contracts, and an SVG debug
// visualization of the board.
package export
