/*
Package domain contains the core data model of the lattice loader.

It describes a synth document (a 3D voxel grid plus object-group catalog),
the named objects a host scene exposes, and the placement commands derived
from both. This package is kept pure and free of I/O, following Hexagonal
Architecture principles: parsing, resolution and planning live in the
runtime, while hosts plug in through the ports package.

# Key Entities

  - Grid: The flattened voxel lattice. Cell (x,y,z) lives at z*DY*DX + x*DY + y.
  - Catalog: Object groups in encounter order. Grid values address groups by
    position, starting at 1; 0 means "place nothing".
  - Object: A named object supplied by a host scene (the resolved handle).
  - ResolvedCatalog: The catalog after name resolution.
  - PlacementCommand: One instruction to instantiate an object at a world position.
*/
package domain
