//go:build cuda

package compute

/*
#cgo CFLAGS: -I/opt/cuda/include
#cgo LDFLAGS: -L/opt/cuda/lib64 -L${SRCDIR} -lcudart -lpairkernels -lstdc++
#include <stdlib.h>

extern int cuda_device_count();
extern const char* cuda_device_name_get();
extern int pair_gpu_init(int ntypes, double* cutsq, double* lj1, double* lj2,
                         double* lj3, double* lj4, double* offset,
                         double* cut_ljsq, double* cut_coulsq,
                         double* special_lj, double* special_coul,
                         double qqrd2e, double kappa, int nlocal, int nall,
                         int max_nbors, double cell_size, int neigh_mode);
extern void pair_gpu_clear();
extern int pair_gpu_compute(int ago, int inum, int nall, double* x, int* type,
                            double* q, int* ilist, int* numneigh, int* neigh,
                            int* neigh_off, int eflag, int vflag, int eatom,
                            int vatom, double cpu_time, double* f,
                            double* energies, double* virial, double* eatom_out,
                            double* vatom_out, int* host_start);
extern long pair_gpu_bytes();
*/
import "C"
import (
	"errors"
	"unsafe"

	"github.com/san-kum/mdsim/internal/neighbor"
	"github.com/san-kum/mdsim/internal/pair"
)

// CUDABackend offloads its share of a force evaluation to the first
// CUDA device.
type CUDABackend struct {
	split      float64
	available  bool
	deviceName string
	table      *pair.Table
	cellSize   float64
	inited     bool
}

func NewCUDABackend(split float64) *CUDABackend {
	count := int(C.cuda_device_count())
	name := ""
	if count > 0 {
		name = C.GoString(C.cuda_device_name_get())
	}
	return &CUDABackend{
		split:      split,
		available:  count > 0,
		deviceName: name,
	}
}

func (c *CUDABackend) Name() string {
	if c.available {
		return "cuda (" + c.deviceName + ")"
	}
	return "cuda (not available)"
}

func (c *CUDABackend) Available() bool { return c.available }

func (c *CUDABackend) Cleanup() {
	if c.inited {
		C.pair_gpu_clear()
		c.inited = false
	}
}

func (c *CUDABackend) Init(args pair.InitArgs) error {
	if !c.available {
		return errors.New("no cuda device present")
	}

	t := args.Table
	c.table = t
	c.cellSize = args.CellSize
	n := t.NTypes + 1

	mode := 0
	if args.Mode == pair.ModeForceNeigh {
		mode = 1
	}

	ok := C.pair_gpu_init(C.int(n),
		cMat(t.Cutsq), cMat(t.LJ1), cMat(t.LJ2), cMat(t.LJ3), cMat(t.LJ4),
		cMat(t.Offset), cMat(t.CutLJsq), cMat(t.CutCoulsq),
		cVec(t.SpecialLJ[:]), cVec(t.SpecialCoul[:]),
		C.double(t.QQRd2e), C.double(t.Kappa),
		C.int(args.NLocal), C.int(args.NAll), C.int(args.MaxNeighbors),
		C.double(args.CellSize), C.int(mode))
	if ok == 0 {
		return errors.New("device rejected pair tables (memory or precision)")
	}

	c.inited = true
	return nil
}

func (c *CUDABackend) Compute(args pair.ComputeArgs, list *neighbor.List) (int, bool) {
	s := args.Atoms
	nall := s.Nall()

	// Flatten the jagged neighbor rows for the device.
	neigh, off := flattenNeigh(list)

	f := make([]float64, 3*nall)
	energies := make([]float64, 2)
	virial := make([]float64, 6)

	var eatom, vatom []float64
	if args.Eflag.PerAtom {
		eatom = make([]float64, nall)
	}
	if args.Vflag.PerAtom {
		vatom = make([]float64, 6*nall)
	}

	var hostStart C.int
	ok := C.pair_gpu_compute(C.int(args.Ago), C.int(args.Inum), C.int(nall),
		(*C.double)(unsafe.Pointer(&s.X[0])), cInts(s.Type),
		(*C.double)(unsafe.Pointer(&s.Q[0])),
		cInts(list.Ilist), cInts(list.Numneigh),
		cInts(neigh), cInts(off),
		cBool(args.Eflag.Global), cBool(args.Vflag.Global),
		cBool(args.Eflag.PerAtom), cBool(args.Vflag.PerAtom),
		C.double(args.CPUTime),
		(*C.double)(unsafe.Pointer(&f[0])),
		(*C.double)(unsafe.Pointer(&energies[0])),
		(*C.double)(unsafe.Pointer(&virial[0])),
		cDoubles(eatom), cDoubles(vatom),
		&hostStart)
	if ok == 0 {
		return 0, false
	}

	mergeDevice(args.Acc, f, energies, virial, eatom, vatom)
	return int(hostStart), true
}

func (c *CUDABackend) ComputeNeigh(args pair.ComputeArgs) (*neighbor.List, int, bool) {
	// The device builds its own list from the sub-box; reproduce a host
	// view of it so the fallback range can be scanned.
	b := neighbor.Builder{Cutoff: c.cellSize}
	list := b.Build(args.Atoms)
	list.Ago = args.Ago

	hostStart, ok := c.Compute(args, list)
	return list, hostStart, ok
}

func (c *CUDABackend) Bytes() int64 {
	if !c.inited {
		return 0
	}
	return int64(C.pair_gpu_bytes())
}

func flattenNeigh(list *neighbor.List) (neigh, off []int32) {
	off = make([]int32, list.Inum+1)
	for ii := 0; ii < list.Inum; ii++ {
		i := list.Ilist[ii]
		neigh = append(neigh, list.Firstneigh[i]...)
		off[ii+1] = int32(len(neigh))
	}
	return neigh, off
}

func cMat(m [][]float64) *C.double {
	n := len(m)
	flat := make([]float64, 0, n*n)
	for _, row := range m {
		flat = append(flat, row...)
	}
	return (*C.double)(unsafe.Pointer(&flat[0]))
}

func cVec(v []float64) *C.double {
	return (*C.double)(unsafe.Pointer(&v[0]))
}

func cDoubles(v []float64) *C.double {
	if len(v) == 0 {
		return nil
	}
	return (*C.double)(unsafe.Pointer(&v[0]))
}

func cInts(v []int32) *C.int {
	if len(v) == 0 {
		return nil
	}
	return (*C.int)(unsafe.Pointer(&v[0]))
}

func cBool(b bool) C.int {
	if b {
		return 1
	}
	return 0
}
