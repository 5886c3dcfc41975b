package diarization

import (
	"github.com/kbukum/voiceid/embedding"
)

// ClusterEngine groups segment embeddings by average-linkage agglomerative
// clustering over cosine distance. Merging continues while the closest pair
// of clusters is strictly below Threshold, so the number of clusters is an
// output. Ties go to the pair with the lowest indices.
type ClusterEngine struct {
	Threshold float64
}

// Clustering is a partition of the input rows.
type Clustering struct {
	// Labels holds one cluster id per input row, NoCluster for rows
	// containing NaN.
	Labels   []int
	Clusters []Cluster
}

// Excluded counts rows labeled NoCluster.
func (c Clustering) Excluded() int {
	n := 0
	for _, l := range c.Labels {
		if l == NoCluster {
			n++
		}
	}
	return n
}

// Cluster partitions rows. Cluster ids are assigned in order of each
// cluster's first row. Centroids are means of the unperturbed rows.
func (e ClusterEngine) Cluster(rows []embedding.Vector) Clustering {
	labels := make([]int, len(rows))
	var valid []int
	for i, r := range rows {
		labels[i] = NoCluster
		if len(r) > 0 && !embedding.HasNaN(r) {
			valid = append(valid, i)
		}
	}
	if len(valid) == 0 {
		return Clustering{Labels: labels}
	}

	n := len(valid)
	dist := make([][]float64, n)
	for a := range dist {
		dist[a] = make([]float64, n)
	}
	for a := 0; a < n; a++ {
		for b := a + 1; b < n; b++ {
			d := embedding.CosineDistance(rows[valid[a]], rows[valid[b]])
			dist[a][b], dist[b][a] = d, d
		}
	}

	members := make([][]int, n)
	active := make([]bool, n)
	for a := range members {
		members[a] = []int{a}
		active[a] = true
	}

	for {
		bi, bj, best := -1, -1, 0.0
		for a := 0; a < n; a++ {
			if !active[a] {
				continue
			}
			for b := a + 1; b < n; b++ {
				if !active[b] {
					continue
				}
				if bi < 0 || dist[a][b] < best {
					bi, bj, best = a, b, dist[a][b]
				}
			}
		}
		if bi < 0 || best >= e.Threshold {
			break
		}

		// Lance-Williams update for average linkage.
		ni, nj := float64(len(members[bi])), float64(len(members[bj]))
		for k := 0; k < n; k++ {
			if !active[k] || k == bi || k == bj {
				continue
			}
			d := (ni*dist[bi][k] + nj*dist[bj][k]) / (ni + nj)
			dist[bi][k], dist[k][bi] = d, d
		}
		members[bi] = append(members[bi], members[bj]...)
		active[bj] = false
	}

	// Relabel by first row so ids follow input order.
	owner := make([]int, n)
	for a := range members {
		if active[a] {
			for _, m := range members[a] {
				owner[m] = a
			}
		}
	}
	ids := make(map[int]int)
	var clusters []Cluster
	for pos, row := range valid {
		root := owner[pos]
		id, seen := ids[root]
		if !seen {
			id = len(clusters)
			ids[root] = id
			clusters = append(clusters, Cluster{ID: id})
		}
		labels[row] = id
		clusters[id].Members = append(clusters[id].Members, row)
	}
	for i := range clusters {
		vecs := make([]embedding.Vector, len(clusters[i].Members))
		for j, row := range clusters[i].Members {
			vecs[j] = rows[row]
		}
		clusters[i].Centroid = embedding.Mean(vecs)
	}
	return Clustering{Labels: labels, Clusters: clusters}
}
