/*
Package lattice places objects in a host scene from a voxel lattice written by a
model synthesis tool.

A synth file holds a 3D grid of catalog indices followed by numbered object
groups and the name of the scene document the objects come from. lattice reads
the file, resolves every group's object names against the host's named-object
table (reloading the named scene document once if some are missing) and emits
one placement command per resolved object per non-empty cell.

# Concept

The engine never touches the host directly. The host supplies three ports:

  - an ObjectProvider listing the objects currently in the scene,
  - a DocumentLoader that can open the scene document a synth file names,
  - an Instantiator that performs each placement.

Commands come out z plane by z plane, then x, then y, at (x, y, z) * unit.

# Usage

	package main

	import (
		"context"
		"log"
		"os"

		"github.com/aretw0/lattice"
		"github.com/aretw0/lattice/pkg/adapters/file"
	)

	func main() {
		eng, err := lattice.New(lattice.WithSceneDir("./scenes"))
		if err != nil {
			log.Fatal(err)
		}

		sink := file.NewSink(os.Stdout, file.FormatText)
		report, err := eng.RunFile(context.Background(), "house.synth", sink)
		if err != nil {
			log.Fatal(err)
		}
		log.Printf("placed %d objects", report.Placed)
	}
*/
package lattice
