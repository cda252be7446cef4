package kommo

type leadRequest struct {
	Name     string       `json:"name"`
	StatusID int          `json:"status_id,omitempty"`
	Embedded leadEmbedded `json:"_embedded"`
}

type leadEmbedded struct {
	Tags     []tag    `json:"tags,omitempty"`
	Contacts []idOnly `json:"contacts,omitempty"`
}

type tag struct {
	Name string `json:"name"`
}

type idOnly struct {
	ID int `json:"id"`
}

type contactRequest struct {
	Name         string        `json:"name"`
	CustomFields []customField `json:"custom_fields_values,omitempty"`
}

type customField struct {
	FieldCode string       `json:"field_code"`
	Values    []fieldValue `json:"values"`
}

type fieldValue struct {
	Value    string `json:"value"`
	EnumCode string `json:"enum_code,omitempty"`
}

type noteRequest struct {
	EntityID int        `json:"entity_id"`
	NoteType string     `json:"note_type"`
	Params   noteParams `json:"params"`
}

type noteParams struct {
	Text string `json:"text"`
}

type embeddedResponse struct {
	Embedded struct {
		Leads    []idOnly `json:"leads"`
		Contacts []idOnly `json:"contacts"`
	} `json:"_embedded"`
}
