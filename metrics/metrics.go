//
//   Copyright © 2019 Uncharted Software Inc.
//
//   Licensed under the Apache License, Version 2.0 (the "License");
//   you may not use this file except in compliance with the License.
//   You may obtain a copy of the License at
//
//       http://www.apache.org/licenses/LICENSE-2.0
//
//   Unless required by applicable law or agreed to in writing, software
//   distributed under the License is distributed on an "AS IS" BASIS,
//   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//   See the License for the specific language governing permissions and
//   limitations under the License.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	Namespace = "madmp"

	LabelStatus    = "status"
	LabelOperation = "operation"
	LabelType      = "type"

	StatusSuccess = "success"
	StatusFailure = "failure"
	StatusDryRun  = "dry_run"
	StatusSkipped = "skipped"
)

var (
	Imports = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:      "imports",
		Namespace: Namespace,
		Help:      "number of maDMP imports by outcome",
	}, []string{LabelStatus})

	DatasetsConverted = prometheus.NewCounter(prometheus.CounterOpts{
		Name:      "datasets_converted",
		Namespace: Namespace,
		Help:      "number of dataset distributions converted to record data",
	})

	Records = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:      "records",
		Namespace: Namespace,
		Help:      "number of records created or updated by imports",
	}, []string{LabelOperation})

	Notifications = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:      "notifications",
		Namespace: Namespace,
		Help:      "number of notifications sent to the DMP tool",
	}, []string{LabelType, LabelStatus})
)

func Register(registry prometheus.Registerer) {
	registry.MustRegister(
		Imports,
		DatasetsConverted,
		Records,
		Notifications,
	)
}
