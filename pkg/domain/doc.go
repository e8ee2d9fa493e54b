/*
Package domain contains the bot graph model consumed by the botsmith compiler.

The package is pure data: nodes, buttons, connections, conditional messages and
groups, plus the small helpers that interpret them (effective keyboard type,
sorted conditions, outgoing references). It has no I/O and no dependency on
the emission pipeline.

# Key Entities

  - Node: one typed unit of the graph. Its Data is a closed sum type (NodeData)
    with one struct per node family.
  - Button: a clickable element whose action decides the resulting control flow.
  - ConditionalMessage: a prioritized alternative message evaluated at runtime.
  - Connection: a canvas edge. Advisory only; buttons and transitions are authoritative.
  - Diagnostic: a non-fatal compile finding.
*/
package domain
