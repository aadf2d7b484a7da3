package compute

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"unsafe"

	"github.com/go-gl/gl/v4.3-core/gl"

	"github.com/san-kum/mdsim/internal/md"
	"github.com/san-kum/mdsim/internal/neighbor"
	"github.com/san-kum/mdsim/internal/pair"
)

// Buffer binding points used by the kernel shader.
const (
	bindPosq = iota
	bindType
	bindIlist
	bindNeigh
	bindNeighOff
	bindCoeff
	bindForce
	bindEnergy
	bindVirial
)

// pairKernelSrc is the lj/cut/coul/debye kernel as a GL compute shader.
// Same formula as pair.ComputeRange, single precision. Coefficient
// tables are flattened into one buffer, 8 tables of (ntypes+1)^2 each:
// cutsq, cut_ljsq, cut_coulsq, lj1..lj4, offset. One invocation per
// list row: the atom index comes from ilist, neighbors and outputs are
// row-indexed, so permuted lists dispatch correctly.
const pairKernelSrc = `#version 430
layout(local_size_x = 128) in;

layout(std430, binding = 0) buffer Posq { vec4 posq[]; };
layout(std430, binding = 1) buffer Types { int atype[]; };
layout(std430, binding = 2) buffer IlistBuf { int ilist[]; };
layout(std430, binding = 3) buffer Neigh { int neigh[]; };
layout(std430, binding = 4) buffer NeighOff { int noff[]; };
layout(std430, binding = 5) buffer Coeff { float coeff[]; };
layout(std430, binding = 6) buffer Force { vec4 force[]; };
layout(std430, binding = 7) buffer Energy { vec2 epair[]; };
layout(std430, binding = 8) buffer Virial { float vir[]; };

uniform int host_start;
uniform int nt;
uniform float kappa;
uniform float qqrd2e;
uniform vec4 special_lj;
uniform vec4 special_coul;
uniform int eflag;
uniform int vflag;

float tab(int k, int it, int jt) { return coeff[k*nt*nt + it*nt + jt]; }

void main() {
    uint gid = gl_GlobalInvocationID.x;
    if (gid >= uint(host_start)) return;
    int ii = int(gid);
    int i = ilist[ii];

    vec4 pi = posq[i];
    int itype = atype[i];

    vec3 f = vec3(0.0);
    float evdwl_sum = 0.0;
    float ecoul_sum = 0.0;
    float v[6];
    for (int k = 0; k < 6; k++) v[k] = 0.0;

    for (int jj = noff[ii]; jj < noff[ii+1]; jj++) {
        int jraw = neigh[jj];
        int sb = (jraw >> 30) & 3;
        int j = jraw & 0x3FFFFFFF;
        float factor_lj = special_lj[sb];
        float factor_coul = special_coul[sb];

        vec3 del = pi.xyz - posq[j].xyz;
        float rsq = dot(del, del);
        int jtype = atype[j];

        if (rsq >= tab(0, itype, jtype)) continue;
        float r2inv = 1.0 / rsq;

        float forcecoul = 0.0;
        float rinv = 0.0;
        float screening = 0.0;
        if (rsq < tab(2, itype, jtype)) {
            float r = sqrt(rsq);
            rinv = 1.0 / r;
            screening = exp(-kappa * r);
            forcecoul = qqrd2e * pi.w * posq[j].w * screening * (kappa + rinv);
        }

        float forcelj = 0.0;
        float r6inv = 0.0;
        if (rsq < tab(1, itype, jtype)) {
            r6inv = r2inv * r2inv * r2inv;
            forcelj = r6inv * (tab(3, itype, jtype) * r6inv - tab(4, itype, jtype));
        }

        float fpair = (factor_coul * forcecoul + factor_lj * forcelj) * r2inv;
        f += del * fpair;

        if (eflag != 0) {
            if (rsq < tab(2, itype, jtype))
                ecoul_sum += 0.5 * factor_coul * qqrd2e * pi.w * posq[j].w * rinv * screening;
            if (rsq < tab(1, itype, jtype))
                evdwl_sum += 0.5 * factor_lj *
                    (r6inv * (tab(5, itype, jtype) * r6inv - tab(6, itype, jtype)) - tab(7, itype, jtype));
        }
        if (vflag != 0) {
            v[0] += 0.5 * del.x * del.x * fpair;
            v[1] += 0.5 * del.y * del.y * fpair;
            v[2] += 0.5 * del.z * del.z * fpair;
            v[3] += 0.5 * del.x * del.y * fpair;
            v[4] += 0.5 * del.x * del.z * fpair;
            v[5] += 0.5 * del.y * del.z * fpair;
        }
    }

    force[ii] = vec4(f, 0.0);
    epair[ii] = vec2(evdwl_sum, ecoul_sum);
    for (int k = 0; k < 6; k++) vir[ii*6+k] = v[k];
}
` + "\x00"

// GLBackend runs the pair kernel as an OpenGL 4.3 compute shader. A
// current GL context is required at Init; headless processes should use
// the CPU or CUDA backends instead.
type GLBackend struct {
	split       float64
	program     uint32
	ssbo        [9]uint32
	table       *pair.Table
	cellSize    float64
	initialized bool
	bytes       int64
}

func NewGLBackend(split float64) *GLBackend {
	if split < 0 {
		split = 0
	}
	if split > 1 {
		split = 1
	}
	return &GLBackend{split: split}
}

func (b *GLBackend) Name() string    { return "opengl" }
func (b *GLBackend) Available() bool { return b.initialized }

func (b *GLBackend) Init(args pair.InitArgs) error {
	if err := gl.Init(); err != nil {
		return fmt.Errorf("%w: opengl: %v", md.ErrDeviceInit, err)
	}

	program, err := compileComputeProgram(pairKernelSrc)
	if err != nil {
		return err
	}
	b.program = program
	b.table = args.Table
	b.cellSize = args.CellSize

	gl.GenBuffers(int32(len(b.ssbo)), &b.ssbo[0])

	// The coefficient tables never change after init.
	coeff := flattenTables(args.Table)
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, b.ssbo[bindCoeff])
	gl.BufferData(gl.SHADER_STORAGE_BUFFER, 4*len(coeff), gl.Ptr(coeff), gl.STATIC_DRAW)

	b.bytes = int64(4 * len(coeff))
	b.initialized = true
	return nil
}

func (b *GLBackend) Cleanup() {
	if !b.initialized {
		return
	}
	gl.DeleteBuffers(int32(len(b.ssbo)), &b.ssbo[0])
	gl.DeleteProgram(b.program)
	b.initialized = false
}

func (b *GLBackend) Compute(args pair.ComputeArgs, list *neighbor.List) (int, bool) {
	if !b.initialized {
		return 0, false
	}

	s := args.Atoms
	nall := s.Nall()
	hostStart := int(math.Round(b.split * float64(args.Inum)))
	if hostStart == 0 {
		return 0, true
	}

	posq := make([]float32, 4*nall)
	for i := 0; i < nall; i++ {
		posq[4*i] = float32(s.X[3*i])
		posq[4*i+1] = float32(s.X[3*i+1])
		posq[4*i+2] = float32(s.X[3*i+2])
		posq[4*i+3] = float32(s.Q[i])
	}
	ilist, neigh, off := flattenList(list, hostStart)

	upload := func(binding int, size int, ptr unsafe.Pointer) {
		gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, b.ssbo[binding])
		gl.BufferData(gl.SHADER_STORAGE_BUFFER, size, ptr, gl.DYNAMIC_DRAW)
	}
	upload(bindPosq, 4*len(posq), gl.Ptr(posq))
	upload(bindType, 4*len(s.Type), gl.Ptr(s.Type))
	upload(bindIlist, 4*len(ilist), gl.Ptr(ilist))
	upload(bindNeigh, 4*len(neigh), gl.Ptr(neigh))
	upload(bindNeighOff, 4*len(off), gl.Ptr(off))
	upload(bindForce, 16*hostStart, nil)
	upload(bindEnergy, 8*hostStart, nil)
	upload(bindVirial, 24*hostStart, nil)

	for i := range b.ssbo {
		gl.BindBufferBase(gl.SHADER_STORAGE_BUFFER, uint32(i), b.ssbo[i])
	}

	gl.UseProgram(b.program)
	gl.Uniform1i(gl.GetUniformLocation(b.program, gl.Str("host_start\x00")), int32(hostStart))
	gl.Uniform1i(gl.GetUniformLocation(b.program, gl.Str("nt\x00")), int32(b.table.NTypes+1))
	gl.Uniform1f(gl.GetUniformLocation(b.program, gl.Str("kappa\x00")), float32(b.table.Kappa))
	gl.Uniform1f(gl.GetUniformLocation(b.program, gl.Str("qqrd2e\x00")), float32(b.table.QQRd2e))
	sl := b.table.SpecialLJ
	sc := b.table.SpecialCoul
	gl.Uniform4f(gl.GetUniformLocation(b.program, gl.Str("special_lj\x00")),
		float32(sl[0]), float32(sl[1]), float32(sl[2]), float32(sl[3]))
	gl.Uniform4f(gl.GetUniformLocation(b.program, gl.Str("special_coul\x00")),
		float32(sc[0]), float32(sc[1]), float32(sc[2]), float32(sc[3]))
	gl.Uniform1i(gl.GetUniformLocation(b.program, gl.Str("eflag\x00")), boolUniform(args.Eflag.Any()))
	gl.Uniform1i(gl.GetUniformLocation(b.program, gl.Str("vflag\x00")), boolUniform(args.Vflag.Any()))

	numGroups := (hostStart + 127) / 128
	gl.DispatchCompute(uint32(numGroups), 1, 1)
	gl.MemoryBarrier(gl.SHADER_STORAGE_BARRIER_BIT)

	b.readBack(args.Acc, ilist)
	return hostStart, true
}

func (b *GLBackend) ComputeNeigh(args pair.ComputeArgs) (*neighbor.List, int, bool) {
	nb := neighbor.Builder{Cutoff: b.cellSize}
	list := nb.Build(args.Atoms)
	list.Ago = args.Ago

	hostStart, ok := b.Compute(args, list)
	return list, hostStart, ok
}

func (b *GLBackend) Bytes() int64 { return b.bytes }

// readBack merges row-indexed device results; ilist maps each row to
// its atom.
func (b *GLBackend) readBack(acc *pair.Accumulator, ilist []int32) {
	rows := len(ilist)
	force := make([]float32, 4*rows)
	epair := make([]float32, 2*rows)
	vir := make([]float32, 6*rows)

	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, b.ssbo[bindForce])
	gl.GetBufferSubData(gl.SHADER_STORAGE_BUFFER, 0, 4*len(force), gl.Ptr(force))
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, b.ssbo[bindEnergy])
	gl.GetBufferSubData(gl.SHADER_STORAGE_BUFFER, 0, 4*len(epair), gl.Ptr(epair))
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, b.ssbo[bindVirial])
	gl.GetBufferSubData(gl.SHADER_STORAGE_BUFFER, 0, 4*len(vir), gl.Ptr(vir))

	for ii := 0; ii < rows; ii++ {
		i := int(ilist[ii])
		acc.AddForce(i, float64(force[4*ii]), float64(force[4*ii+1]), float64(force[4*ii+2]))
		if acc.Eflag.Global {
			acc.Evdwl += float64(epair[2*ii])
			acc.Ecoul += float64(epair[2*ii+1])
		}
		if acc.Eflag.PerAtom {
			acc.Eatom[i] += float64(epair[2*ii]) + float64(epair[2*ii+1])
		}
		if acc.Vflag.Global {
			for k := 0; k < 6; k++ {
				acc.Virial[k] += float64(vir[6*ii+k])
			}
		}
		if acc.Vflag.PerAtom {
			for k := 0; k < 6; k++ {
				acc.Vatom[i][k] += float64(vir[6*ii+k])
			}
		}
	}
}

func flattenTables(t *pair.Table) []float32 {
	n := t.NTypes + 1
	tables := [][][]float64{t.Cutsq, t.CutLJsq, t.CutCoulsq, t.LJ1, t.LJ2, t.LJ3, t.LJ4, t.Offset}
	out := make([]float32, 0, len(tables)*n*n)
	for _, m := range tables {
		for _, row := range m {
			for _, v := range row {
				out = append(out, float32(v))
			}
		}
	}
	return out
}

// flattenList packs rows [0, hostStart) of a jagged neighbor list into
// one array with per-row offsets. The returned ilist prefix carries the
// row-to-atom mapping; rows need not be the identity permutation.
func flattenList(list *neighbor.List, hostStart int) (ilist, neigh, off []int32) {
	ilist = list.Ilist[:hostStart]
	off = make([]int32, hostStart+1)
	for ii := 0; ii < hostStart; ii++ {
		i := ilist[ii]
		neigh = append(neigh, list.Firstneigh[i]...)
		off[ii+1] = int32(len(neigh))
	}
	if len(neigh) == 0 {
		neigh = []int32{0}
	}
	return ilist, neigh, off
}

func boolUniform(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

func compileComputeProgram(src string) (uint32, error) {
	shader := gl.CreateShader(gl.COMPUTE_SHADER)
	csources, free := gl.Strs(src)
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(log))
		return 0, fmt.Errorf("failed to compile pair kernel shader: %v", log)
	}

	program := gl.CreateProgram()
	gl.AttachShader(program, shader)
	gl.LinkProgram(program)

	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		return 0, errors.New("failed to link pair kernel program")
	}

	gl.DeleteShader(shader)
	return program, nil
}
