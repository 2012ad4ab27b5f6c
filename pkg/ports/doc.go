/*
Package ports defines the driven ports (interfaces) for the lattice engine.

These interfaces decouple the core logic from the host scene, allowing the
engine to resolve names against any object table, reload scene documents from
any storage, and hand placements to any consumer.

# Key Interfaces

  - ObjectProvider: Supplies the named objects currently available in a scene.
  - DocumentLoader: Opens an external scene document and returns its provider.
  - Instantiator: Performs one placement in the host scene.
*/
package ports
