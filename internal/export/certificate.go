package export

import (
	"bytes"
	"fmt"
	"text/template"
	"time"

	"github.com/tesseract-hub/accreditation-service/internal/models"
)

// certificateTemplate renders the accreditation certificate snapshot. The
// output is a plain-text document; PDF rendering happens downstream.
var certificateTemplate = template.Must(template.New("certificate").Parse(`CERTIFICATE OF ACCREDITATION

Certificate No: {{.CertificateNo}}
Issued: {{.IssuedAt.Format "02 January 2006"}}

This certifies that

    {{.Form.CompanyName}}
    {{.Form.BusinessAddress}}

has been reviewed and APPROVED as an accredited post-production facility.

Contact Person: {{.Form.ContactPerson}}
Contact Email:  {{.Form.ContactEmail}}

Services Offered:
{{- range .Services}}
  - {{.}}
{{- end}}

Workstations: {{.Form.TotalWorkstations}}
Accomplished By: {{.Form.AccomplishedBy}}, {{.Form.Designation}}
{{- if .Form.SubmittedAt}}
Submitted: {{.Form.SubmittedAt.Format "02 January 2006"}}
{{- end}}
Approved By: {{.ApproverName}}
`))

type certificateData struct {
	CertificateNo string
	IssuedAt      time.Time
	Form          *models.AccreditationForm
	Services      []models.ServiceCode
	ApproverName  string
}

// Certificate renders the accreditation certificate for an approved form.
// Callers must verify the form is approved before exporting.
func Certificate(form *models.AccreditationForm, approverName string) ([]byte, error) {
	if form.Status != models.FormStatusApproved {
		return nil, fmt.Errorf("form %s is not approved", form.ID)
	}

	data := certificateData{
		CertificateNo: fmt.Sprintf("ACC-%d-%s", time.Now().UTC().Year(), form.ID.String()[:8]),
		IssuedAt:      time.Now().UTC(),
		Form:          form,
		Services:      form.ServicesOffered.Data(),
		ApproverName:  approverName,
	}

	var buf bytes.Buffer
	if err := certificateTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render certificate: %w", err)
	}
	return buf.Bytes(), nil
}
