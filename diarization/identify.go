package diarization

import (
	"fmt"

	"github.com/kbukum/voiceid/embedding"
	"github.com/kbukum/voiceid/speaker"
)

// AnonymousLabel is the label of a cluster no known speaker matched.
func AnonymousLabel(clusterID int) string {
	return fmt.Sprintf("SPEAKER_%d", clusterID)
}

// Identifier names clusters after known speakers.
type Identifier struct {
	Policy    IdentificationPolicy
	Threshold float64
}

// Identify finds the known speaker closest to centroid under the policy.
// The speaker's name is used only when the distance is strictly below
// Threshold. When two speakers are equally close the first one in store
// order wins.
func (id Identifier) Identify(clusterID int, centroid embedding.Vector, speakers []speaker.Speaker) Identification {
	result := Identification{ClusterID: clusterID, Label: AnonymousLabel(clusterID)}

	found := false
	for _, sp := range speakers {
		d, ok := id.Policy.Distance(centroid, sp)
		if !ok {
			continue
		}
		if !found || d < result.Distance {
			result.Candidate, result.Distance, found = sp.Name, d, true
		}
	}
	if found && result.Distance < id.Threshold {
		result.Label, result.Known = result.Candidate, true
	}
	return result
}

// Label identifies every cluster present in segments and writes the labels
// back. Segments outside any cluster are labeled UnknownNaNLabel.
// Centroids are recomputed from the segment embeddings.
func (id Identifier) Label(segments []Segment, speakers []speaker.Speaker) ([]Segment, []Identification) {
	order := []int{}
	byCluster := make(map[int][]embedding.Vector)
	for _, s := range segments {
		if s.Cluster == NoCluster {
			continue
		}
		if _, ok := byCluster[s.Cluster]; !ok {
			order = append(order, s.Cluster)
		}
		byCluster[s.Cluster] = append(byCluster[s.Cluster], s.Embedding)
	}

	labels := make(map[int]string, len(order))
	ids := make([]Identification, 0, len(order))
	for _, c := range order {
		ident := id.Identify(c, embedding.Mean(byCluster[c]), speakers)
		labels[c] = ident.Label
		ids = append(ids, ident)
	}

	out := make([]Segment, len(segments))
	for i, s := range segments {
		if s.Cluster == NoCluster {
			s.Speaker = UnknownNaNLabel
		} else {
			s.Speaker = labels[s.Cluster]
		}
		out[i] = s
	}
	return out, ids
}
