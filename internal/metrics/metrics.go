package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Bulk scheduling outcome counters, labeled by what happened to each
// candidate.
var (
	BulkClassesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clubsched_bulk_classes_created_total",
		Help: "Classes created by bulk schedule commits.",
	})
	BulkClassesSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clubsched_bulk_classes_skipped_total",
		Help: "Bulk candidates skipped due to conflicts.",
	})
	BulkClassesFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clubsched_bulk_classes_failed_total",
		Help: "Bulk candidates whose create failed.",
	})
)

// AttendanceSaves counts attendance upserts by result.
var AttendanceSaves = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "clubsched_attendance_saves_total",
	Help: "Attendance record upserts by result.",
}, []string{"result"})
