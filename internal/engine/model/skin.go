package model

import "fmt"

// emptyInfluence returns an influence with every slot unused.
func emptyInfluence() Influence {
	var in Influence
	for i := range in.Joints {
		in.Joints[i] = -1
	}
	return in
}

// add places joint into a free slot, or over the lightest slot when all are
// taken and weight is heavier. It reports whether a weight had to be discarded.
func (in *Influence) add(joint int32, weight float32) bool {
	lightest := -1
	for i := range in.Joints {
		if in.Joints[i] < 0 {
			in.Joints[i] = joint
			in.Weights[i] = weight
			return false
		}
		if lightest < 0 || in.Weights[i] < in.Weights[lightest] {
			lightest = i
		}
	}

	if weight > in.Weights[lightest] {
		in.Joints[lightest] = joint
		in.Weights[lightest] = weight
	}
	return true
}

// Count returns the number of used slots.
func (in *Influence) Count() int {
	n := 0
	for _, j := range in.Joints {
		if j >= 0 {
			n++
		}
	}
	return n
}

// TotalWeight returns the sum of used slot weights.
func (in *Influence) TotalWeight() float32 {
	var sum float32
	for i, j := range in.Joints {
		if j >= 0 {
			sum += in.Weights[i]
		}
	}
	return sum
}

// buildSkin assigns bone weights of mesh to its vertices. Bones without a
// joint are skipped; they are reported when inverse bind poses are applied.
func buildSkin(mesh *Mesh, joints map[string]int) (Skin, []string) {
	skin := Skin{
		Mesh:       mesh.Name,
		Influences: make([]Influence, mesh.VertexCount),
	}
	for i := range skin.Influences {
		skin.Influences[i] = emptyInfluence()
	}

	var warnings []string
	dropped := 0
	for _, bone := range mesh.Bones {
		idx, ok := joints[bone.Name]
		if !ok {
			continue
		}
		for _, w := range bone.Weights {
			if w.Vertex < 0 || w.Vertex >= mesh.VertexCount {
				warnings = append(warnings, fmt.Sprintf("mesh %q: bone %q weights vertex %d of %d",
					mesh.Name, bone.Name, w.Vertex, mesh.VertexCount))
				continue
			}
			if skin.Influences[w.Vertex].add(int32(idx), w.Weight) {
				dropped++
			}
		}
	}

	if dropped > 0 {
		warnings = append(warnings, fmt.Sprintf("mesh %q: %d weights dropped beyond %d influences per vertex",
			mesh.Name, dropped, MaxInfluences))
	}
	return skin, warnings
}
