package line

import "sync"

// WelcomeSettings customizes the welcome card.
type WelcomeSettings struct {
	PrimaryColor string `json:"primaryColor" yaml:"primaryColor"`
	BgColor      string `json:"bgColor" yaml:"bgColor"`
	ButtonColor  string `json:"buttonColor" yaml:"buttonColor"`
	Title        string `json:"title" yaml:"title"`
	Subtitle     string `json:"subtitle" yaml:"subtitle"`
	Message      string `json:"message" yaml:"message"`
	Instruction  string `json:"instruction" yaml:"instruction"`
	RepairBtn    string `json:"repairBtn" yaml:"repairBtn"`
	TrackBtn     string `json:"trackBtn" yaml:"trackBtn"`
}

// FormSettings customizes the form invitation cards.
type FormSettings struct {
	PrimaryColor string `json:"primaryColor" yaml:"primaryColor"`
	BgColor      string `json:"bgColor" yaml:"bgColor"`
	Title        string `json:"title" yaml:"title"`
	Description  string `json:"description" yaml:"description"`
	Instruction  string `json:"instruction" yaml:"instruction"`
}

// ConfirmSettings customizes confirmation and completion cards.
type ConfirmSettings struct {
	PrimaryColor string `json:"primaryColor" yaml:"primaryColor"`
	BgColor      string `json:"bgColor" yaml:"bgColor"`
	Title        string `json:"title" yaml:"title"`
	Message      string `json:"message" yaml:"message"`
	Instruction  string `json:"instruction" yaml:"instruction"`
}

// StatusSettings holds the header color of each status.
type StatusSettings struct {
	PendingColor   string `json:"pendingColor" yaml:"pendingColor"`
	ApprovedColor  string `json:"approvedColor" yaml:"approvedColor"`
	ProgressColor  string `json:"progressColor" yaml:"progressColor"`
	CompleteColor  string `json:"completeColor" yaml:"completeColor"`
	RejectedColor  string `json:"rejectedColor" yaml:"rejectedColor"`
	CancelledColor string `json:"cancelledColor" yaml:"cancelledColor"`
}

// FlexSettings is the admin-editable look of every card. It is stored as a
// JSON document and loaded at startup.
type FlexSettings struct {
	Welcome WelcomeSettings `json:"welcome" yaml:"welcome"`
	Form    FormSettings    `json:"form" yaml:"form"`
	Confirm ConfirmSettings `json:"confirm" yaml:"confirm"`
	Status  StatusSettings  `json:"status" yaml:"status"`
}

// DefaultFlexSettings returns the stock settings with orgName as the
// welcome subtitle.
func DefaultFlexSettings(orgName string) FlexSettings {
	if orgName == "" {
		orgName = "องค์การบริหารส่วนตำบลข่าใหญ่"
	}
	return FlexSettings{
		Welcome: WelcomeSettings{
			PrimaryColor: "#fbbf24",
			BgColor:      "#f8fafc",
			ButtonColor:  "#f59e0b",
			Title:        "⚡ ระบบแจ้งซ่อมไฟฟ้า",
			Subtitle:     orgName,
			Message:      "🙏 ยินดีต้อนรับท่านครับ",
			Instruction:  "กรุณาเลือกบริการที่ต้องการใช้งาน",
			RepairBtn:    "🔧 แจ้งซ่อมไฟฟ้า",
			TrackBtn:     "📊 ติดตามการซ่อม",
		},
		Form: FormSettings{
			PrimaryColor: "#fbbf24",
			BgColor:      "#ffffff",
			Title:        "📝 กรอกข้อมูลส่วนตัว",
			Description:  "ข้อมูลสำหรับการติดต่อ",
			Instruction:  "กรุณากรอกข้อมูลเพื่อให้เจ้าหน้าที่สามารถติดต่อกลับได้",
		},
		Confirm: ConfirmSettings{
			PrimaryColor: "#10b981",
			BgColor:      "#f0fdf4",
			Title:        "✅ ยืนยันข้อมูลส่วนตัว",
			Message:      "ข้อมูลที่บันทึกไว้",
			Instruction:  "กรุณาตรวจสอบความถูกต้อง",
		},
		Status: StatusSettings{
			PendingColor:   "#f59e0b",
			ApprovedColor:  "#10b981",
			ProgressColor:  "#3b82f6",
			CompleteColor:  "#10b981",
			RejectedColor:  "#ef4444",
			CancelledColor: "#6b7280",
		},
	}
}

// Merge overlays the non-empty values of patch, section by section.
func (s FlexSettings) Merge(patch FlexSettings) FlexSettings {
	over := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	w, pw := &s.Welcome, patch.Welcome
	for _, p := range [][2]*string{
		{&w.PrimaryColor, &pw.PrimaryColor}, {&w.BgColor, &pw.BgColor}, {&w.ButtonColor, &pw.ButtonColor},
		{&w.Title, &pw.Title}, {&w.Subtitle, &pw.Subtitle}, {&w.Message, &pw.Message},
		{&w.Instruction, &pw.Instruction}, {&w.RepairBtn, &pw.RepairBtn}, {&w.TrackBtn, &pw.TrackBtn},
	} {
		over(p[0], *p[1])
	}
	f, pf := &s.Form, patch.Form
	for _, p := range [][2]*string{
		{&f.PrimaryColor, &pf.PrimaryColor}, {&f.BgColor, &pf.BgColor}, {&f.Title, &pf.Title},
		{&f.Description, &pf.Description}, {&f.Instruction, &pf.Instruction},
	} {
		over(p[0], *p[1])
	}
	c, pc := &s.Confirm, patch.Confirm
	for _, p := range [][2]*string{
		{&c.PrimaryColor, &pc.PrimaryColor}, {&c.BgColor, &pc.BgColor}, {&c.Title, &pc.Title},
		{&c.Message, &pc.Message}, {&c.Instruction, &pc.Instruction},
	} {
		over(p[0], *p[1])
	}
	st, ps := &s.Status, patch.Status
	for _, p := range [][2]*string{
		{&st.PendingColor, &ps.PendingColor}, {&st.ApprovedColor, &ps.ApprovedColor},
		{&st.ProgressColor, &ps.ProgressColor}, {&st.CompleteColor, &ps.CompleteColor},
		{&st.RejectedColor, &ps.RejectedColor}, {&st.CancelledColor, &ps.CancelledColor},
	} {
		over(p[0], *p[1])
	}
	return s
}

// SettingsHolder guards the live FlexSettings.
type SettingsHolder struct {
	mu sync.RWMutex
	s  FlexSettings
}

// NewSettingsHolder starts with s.
func NewSettingsHolder(s FlexSettings) *SettingsHolder {
	return &SettingsHolder{s: s}
}

// Get returns a copy of the current settings.
func (h *SettingsHolder) Get() FlexSettings {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.s
}

// Set replaces the current settings.
func (h *SettingsHolder) Set(s FlexSettings) {
	h.mu.Lock()
	h.s = s
	h.mu.Unlock()
}
