/*
Package vault implements the shared content store that both work zones
coordinate through.

The vault is a plain directory with a fixed folder layout. Every unit
of pipeline state is a markdown artifact with a leading key/value
header block, and every state transition is an atomic rename between
folders (claim-by-move). Writes go to a temp file first and are then
renamed into place, so readers in the other zone never observe partial
content.

The vault does not interpret artifact bodies; all semantic parsing
lives in the planner and orchestrator.
*/
package vault
