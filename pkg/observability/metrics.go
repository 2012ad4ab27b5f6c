package observability

import (
	"context"
	"strconv"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors fed by the engine hooks.
type Metrics struct {
	Documents   prometheus.Counter
	Cells       prometheus.Counter
	Resolutions *prometheus.CounterVec
	Missing     prometheus.Counter
	Planes      prometheus.Counter
	Placements  *prometheus.CounterVec
}

// NewMetrics creates and registers the collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Documents: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lattice_documents_parsed_total",
			Help: "Total number of synth documents parsed",
		}),
		Cells: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lattice_cells_parsed_total",
			Help: "Total number of lattice cells read",
		}),
		Resolutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lattice_resolutions_total",
				Help: "Resolution passes by pass kind and completeness",
			},
			[]string{"reload", "complete"},
		),
		Missing: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lattice_missing_objects_total",
			Help: "Catalog names that did not resolve",
		}),
		Planes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lattice_planes_total",
			Help: "Lattice planes fully placed",
		}),
		Placements: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lattice_placements_total",
				Help: "Placement commands handed to the host, by catalog group",
			},
			[]string{"group"},
		),
	}
	reg.MustRegister(m.Documents, m.Cells, m.Resolutions, m.Missing, m.Planes, m.Placements)
	return m
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnParsed: func(ctx context.Context, e *domain.ParseEvent) {
			m.Documents.Inc()
			m.Cells.Add(float64(e.Extents[0] * e.Extents[1] * e.Extents[2]))
		},
		OnResolved: func(ctx context.Context, e *domain.ResolveEvent) {
			m.Resolutions.WithLabelValues(strconv.FormatBool(e.Reload), strconv.FormatBool(e.State.Complete())).Inc()
			m.Missing.Add(float64(len(e.Missing)))
		},
		OnPlane: func(ctx context.Context, e *domain.PlaneEvent) {
			m.Planes.Inc()
		},
		OnPlaced: func(ctx context.Context, e *domain.PlacementEvent) {
			m.Placements.WithLabelValues(strconv.Itoa(e.Command.GroupIndex)).Inc()
		},
	}
}
