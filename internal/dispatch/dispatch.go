// Package dispatch implements the operation registry keyed on the HL7
// trigger event (spec.md §4.6): currently only ADT^A28 routes anywhere,
// every other trigger is logged and dropped.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/route-beacon/mllp-gateway/internal/bundle"
	"github.com/route-beacon/mllp-gateway/internal/fhir"
	"github.com/route-beacon/mllp-gateway/internal/hl7"
	"github.com/route-beacon/mllp-gateway/internal/mapper"
	"github.com/route-beacon/mllp-gateway/internal/metrics"
	"go.uber.org/zap"
)

// Publisher is the subset of internal/kafkaegress.Producer the dispatcher
// needs, kept as an interface so operations can be tested without a live
// Kafka client.
type Publisher interface {
	PublishFhirTransaction(ctx context.Context, key, value []byte) error
}

// operationFunc handles one trigger event's second-pass parse and
// downstream work.
type operationFunc func(ctx context.Context, msg *hl7.Message, inbound *hl7.InboundMessage) error

// Dispatcher routes an InboundMessage to its registered operation by
// InboundMessage.TriggerEvent.
type Dispatcher struct {
	publisher       Publisher
	managingOrgCode string
	managingOrgName string
	logger          *zap.Logger
	ops             map[string]operationFunc
}

// New builds a Dispatcher with the A28 patient-new operation registered.
func New(publisher Publisher, managingOrgCode, managingOrgName string, logger *zap.Logger) *Dispatcher {
	d := &Dispatcher{
		publisher:       publisher,
		managingOrgCode: managingOrgCode,
		managingOrgName: managingOrgName,
		logger:          logger,
	}
	d.ops = map[string]operationFunc{
		"A28": d.handlePatientNew,
	}
	return d
}

// Handle routes one already-ACKed InboundMessage to its operation. raw is
// the original (decoded) HL7 payload, re-parsed here for field access
// beyond what the first pass extracted (spec.md §3's MessageData).
func (d *Dispatcher) Handle(ctx context.Context, inbound *hl7.InboundMessage, raw string) {
	op, ok := d.ops[inbound.TriggerEvent]
	if !ok {
		d.logger.Info("dropping unsupported trigger event",
			zap.String("bundle_id", inbound.BundleID),
			zap.String("trigger_event", inbound.TriggerEvent),
		)
		return
	}

	msg := hl7.NewMessage(raw)
	if err := op(ctx, msg, inbound); err != nil {
		d.logger.Error("operation failed",
			zap.String("bundle_id", inbound.BundleID),
			zap.String("trigger_event", inbound.TriggerEvent),
			zap.Error(err),
		)
	}
}

// handlePatientNew implements spec.md §4.6's patient-new flow: build the
// Bundle from the PID/ROL/IN1/OBX/NK1 segments, JSON-encode it, and
// publish keyed by MSH-10.
func (d *Dispatcher) handlePatientNew(ctx context.Context, msg *hl7.Message, inbound *hl7.InboundMessage) error {
	msh := msg.Segment("MSH")
	if msh == nil {
		return fmt.Errorf("second-pass parse found no MSH segment")
	}
	msh10 := msh.Field(10)

	patient, roleOrgs, warnings := mapper.BuildPatient(msg, d.managingOrgCode)
	if patient == nil {
		metrics.ParseErrorsTotal.WithLabelValues("mapping", "patient").Inc()
		return fmt.Errorf("patient mapping failed: %v", warnings)
	}

	practitioners, prWarnings := mapper.BuildPractitioners(msg)
	warnings = append(warnings, prWarnings...)

	coverages, covOrgs := mapper.BuildCoverages(msg, patient.ID)

	var managingOrg *fhir.Organization
	if d.managingOrgCode != "" {
		managingOrg = mapper.BuildOrganization(d.managingOrgCode, d.managingOrgName)
	}

	orgs := make([]*fhir.Organization, 0, len(roleOrgs)+len(covOrgs))
	for i := range roleOrgs {
		orgs = append(orgs, &roleOrgs[i])
	}
	orgs = append(orgs, covOrgs...)

	if len(warnings) > 0 {
		d.logger.Warn("patient mapping warnings",
			zap.String("bundle_id", inbound.BundleID),
			zap.Any("warnings", warnings),
		)
	}

	b := bundle.Assemble(bundle.Resources{
		Patient:              patient,
		ManagingOrganization: managingOrg,
		Practitioners:        practitioners,
		Organizations:        orgs,
		Coverages:            coverages,
	}, msh10)

	metrics.BundleResourcesTotal.WithLabelValues("Patient").Inc()
	if managingOrg != nil {
		metrics.BundleResourcesTotal.WithLabelValues("Organization").Inc()
	}
	metrics.BundleResourcesTotal.WithLabelValues("Practitioner").Add(float64(len(practitioners)))
	metrics.BundleResourcesTotal.WithLabelValues("Organization").Add(float64(len(orgs)))
	metrics.BundleResourcesTotal.WithLabelValues("Coverage").Add(float64(len(coverages)))

	payload, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("marshaling bundle: %w", err)
	}

	if err := d.publisher.PublishFhirTransaction(ctx, []byte(msh10), payload); err != nil {
		return fmt.Errorf("publishing fhir transaction: %w", err)
	}

	return nil
}
