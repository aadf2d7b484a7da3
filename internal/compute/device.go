package compute

import "github.com/san-kum/mdsim/internal/pair"

// mergeDevice folds device-side results into the shared accumulator.
// f, eatom and vatom are full atom-indexed arrays (3, 1 and 6 entries
// per atom); the device writes only the atoms it owns, so the merge
// adds everything. Scalar sums already carry the half-weight full-list
// convention. Per-atom slices are nil when the flags did not request
// them.
func mergeDevice(acc *pair.Accumulator, f, energies, virial, eatom, vatom []float64) {
	for i := range f {
		acc.F[i] += f[i]
	}
	acc.Evdwl += energies[0]
	acc.Ecoul += energies[1]
	for k := 0; k < 6; k++ {
		acc.Virial[k] += virial[k]
	}

	if acc.Eflag.PerAtom && eatom != nil {
		for i := range eatom {
			acc.Eatom[i] += eatom[i]
		}
	}
	if acc.Vflag.PerAtom && vatom != nil {
		for i := 0; i < len(vatom)/6; i++ {
			for k := 0; k < 6; k++ {
				acc.Vatom[i][k] += vatom[6*i+k]
			}
		}
	}
}
