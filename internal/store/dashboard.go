package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/bronn-dev/smartdental/internal/clinic"
	"github.com/bronn-dev/smartdental/internal/models"
)

// AppointmentStatusCounts aggregates the tenant's appointments by state.
func (s *Postgres) AppointmentStatusCounts(ctx context.Context, tenantID uuid.UUID) (clinic.StatusCounts, error) {
	var counts clinic.StatusCounts
	err := s.db.QueryRow(ctx, `
		SELECT count(*),
		       count(*) FILTER (WHERE status = 'SCHEDULED'),
		       count(*) FILTER (WHERE status = 'CANCELLED'),
		       count(*) FILTER (WHERE status = 'COMPLETED'),
		       count(*) FILTER (WHERE procedure_type = 'Emergency Triage')
		FROM appointments
		WHERE clinic_id = $1
	`, tenantID).Scan(&counts.Total, &counts.Scheduled, &counts.Cancelled, &counts.Completed, &counts.Emergency)
	if err != nil {
		return clinic.StatusCounts{}, fmt.Errorf("store: status counts failed: %w", err)
	}
	return counts, nil
}

// DistinctPatientCount counts the tenant's distinct appointment patients.
func (s *Postgres) DistinctPatientCount(ctx context.Context, tenantID uuid.UUID) (int, error) {
	var n int
	err := s.db.QueryRow(ctx,
		`SELECT count(DISTINCT patient_id) FROM appointments WHERE clinic_id = $1`, tenantID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("store: patient count failed: %w", err)
	}
	return n, nil
}

// DoctorUtilization reports scheduled appointments per doctor.
func (s *Postgres) DoctorUtilization(ctx context.Context, tenantID uuid.UUID) ([]clinic.DoctorUtilization, error) {
	rows, err := s.db.Query(ctx, `
		SELECT d.doctor_id, d.name, count(a.appt_id)
		FROM doctors d
		LEFT JOIN appointments a ON a.doctor_id = d.doctor_id AND a.status = 'SCHEDULED'
		WHERE d.tenant_id = $1
		GROUP BY d.doctor_id, d.name
		ORDER BY d.name
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("store: utilization query failed: %w", err)
	}
	defer rows.Close()

	var out []clinic.DoctorUtilization
	for rows.Next() {
		var u clinic.DoctorUtilization
		var id uuid.UUID
		if err := rows.Scan(&id, &u.DoctorName, &u.Scheduled); err != nil {
			return nil, fmt.Errorf("store: utilization scan failed: %w", err)
		}
		u.DoctorID = id.String()
		out = append(out, u)
	}
	return out, rows.Err()
}

// Memory implementations of the dashboard contract.

func (m *Memory) AppointmentStatusCounts(_ context.Context, tenantID uuid.UUID) (clinic.StatusCounts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var counts clinic.StatusCounts
	for _, a := range m.Appointments {
		if tenantID != uuid.Nil && a.ClinicID != tenantID {
			continue
		}
		counts.Total++
		switch a.Status {
		case models.ApptScheduled:
			counts.Scheduled++
		case models.ApptCancelled:
			counts.Cancelled++
		case models.ApptCompleted:
			counts.Completed++
		}
		if a.ProcedureType == "Emergency Triage" {
			counts.Emergency++
		}
	}
	return counts, nil
}

func (m *Memory) DistinctPatientCount(_ context.Context, tenantID uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := map[uuid.UUID]struct{}{}
	for _, a := range m.Appointments {
		if tenantID != uuid.Nil && a.ClinicID != tenantID {
			continue
		}
		seen[a.PatientID] = struct{}{}
	}
	return len(seen), nil
}

func (m *Memory) DoctorUtilization(_ context.Context, tenantID uuid.UUID) ([]clinic.DoctorUtilization, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []clinic.DoctorUtilization
	for _, d := range m.Doctors {
		if tenantID != uuid.Nil && d.TenantID != tenantID {
			continue
		}
		scheduled := 0
		for _, a := range m.Appointments {
			if a.DoctorID == d.DoctorID && a.Status == models.ApptScheduled {
				scheduled++
			}
		}
		out = append(out, clinic.DoctorUtilization{DoctorID: d.DoctorID.String(), DoctorName: d.Name, Scheduled: scheduled})
	}
	return out, nil
}

var _ clinic.Store = (*Postgres)(nil)
var _ clinic.Store = (*Memory)(nil)
