package line

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/line/line-bot-sdk-go/v7/linebot"

	"github.com/khayai/repairbot/internal/domain"
	"github.com/khayai/repairbot/internal/utils"
)

// Bot commands carried by card buttons. The conversation service matches
// user text against the same values.
const (
	CmdRepair         = "แจ้งซ่อม"
	CmdTrack          = "ติดตามการซ่อม"
	CmdReset          = "เริ่มใหม่"
	CmdCancel         = "ยกเลิก"
	CmdConfirmData    = "ยืนยันข้อมูล"
	CmdEditData       = "แก้ไขข้อมูล"
	CmdTrackByID      = "ติดตามด้วยเลขที่"
	CmdTrackByPhone   = "ติดตามด้วยเบอร์โทร"
	CmdSkipRating     = "ข้ามการให้คะแนน"
	RatingDataPrefix  = "rating_"
	notSpecified      = "ไม่ระบุ"
	copyRequestPrefix = "copy_request_id_"
)

// Templates renders the bot's Flex cards with the live settings.
type Templates struct {
	Settings *SettingsHolder
	BaseURL  string
	Location *time.Location
}

// NewTemplates returns templates using settings and links under baseURL.
func NewTemplates(settings *SettingsHolder, baseURL string, loc *time.Location) *Templates {
	return &Templates{Settings: settings, BaseURL: baseURL, Location: loc}
}

// Text builds a plain text message.
func Text(s string) *linebot.TextMessage { return linebot.NewTextMessage(s) }

// RatingPostbackData is the postback payload of a quick-rating button.
func RatingPostbackData(requestID string, stars int) string {
	return RatingDataPrefix + requestID + "_" + strconv.Itoa(stars)
}

// PersonalFormURL is the LIFF page collecting personal details.
func (t *Templates) PersonalFormURL(userID string) string {
	return t.BaseURL + "/form?userId=" + url.QueryEscape(userID)
}

// RepairFormURL is the LIFF page collecting a repair report.
func (t *Templates) RepairFormURL(userID string) string {
	return t.BaseURL + "/repair-form.html?userId=" + url.QueryEscape(userID)
}

// RatingFormURL is the long feedback form of a completed request.
func (t *Templates) RatingFormURL(requestID, userID string) string {
	return t.BaseURL + "/rating-form.html?requestId=" + url.QueryEscape(requestID) + "&userId=" + url.QueryEscape(userID)
}

// ---- component helpers ----

func vbox(bg string, contents ...linebot.FlexComponent) *linebot.BoxComponent {
	return &linebot.BoxComponent{
		Type:            linebot.FlexComponentTypeBox,
		Layout:          linebot.FlexBoxLayoutTypeVertical,
		Contents:        contents,
		Spacing:         linebot.FlexComponentSpacingTypeMd,
		BackgroundColor: bg,
		PaddingAll:      "20px",
	}
}

func hbox(contents ...linebot.FlexComponent) *linebot.BoxComponent {
	return &linebot.BoxComponent{
		Type:     linebot.FlexComponentTypeBox,
		Layout:   linebot.FlexBoxLayoutTypeHorizontal,
		Contents: contents,
		Spacing:  linebot.FlexComponentSpacingTypeSm,
	}
}

func title(s string) *linebot.TextComponent {
	return &linebot.TextComponent{
		Type:   linebot.FlexComponentTypeText,
		Text:   s,
		Weight: linebot.FlexTextWeightTypeBold,
		Size:   linebot.FlexTextSizeTypeXl,
		Color:  "#0f172a",
		Align:  linebot.FlexComponentAlignTypeCenter,
		Wrap:   true,
	}
}

func text(s, color string, size linebot.FlexTextSizeType) *linebot.TextComponent {
	return &linebot.TextComponent{
		Type:  linebot.FlexComponentTypeText,
		Text:  s,
		Size:  size,
		Color: color,
		Wrap:  true,
	}
}

func bold(s, color string, size linebot.FlexTextSizeType) *linebot.TextComponent {
	c := text(s, color, size)
	c.Weight = linebot.FlexTextWeightTypeBold
	return c
}

func separator(color string) *linebot.SeparatorComponent {
	return &linebot.SeparatorComponent{
		Type:   linebot.FlexComponentTypeSeparator,
		Margin: linebot.FlexComponentMarginTypeLg,
		Color:  color,
	}
}

func button(action linebot.TemplateAction, style linebot.FlexButtonStyleType, color string) *linebot.ButtonComponent {
	return &linebot.ButtonComponent{
		Type:   linebot.FlexComponentTypeButton,
		Action: action,
		Style:  style,
		Height: linebot.FlexButtonHeightTypeSm,
		Color:  color,
	}
}

func msgAction(label, cmd string) *linebot.MessageAction {
	return &linebot.MessageAction{Label: label, Text: cmd}
}

func uriAction(label, uri string) *linebot.URIAction {
	return &linebot.URIAction{Label: label, URI: uri}
}

func postbackAction(label, data, display string) *linebot.PostbackAction {
	return &linebot.PostbackAction{Label: label, Data: data, DisplayText: display}
}

func row(label, value string) *linebot.BoxComponent {
	l := text(label, "#64748b", linebot.FlexTextSizeTypeSm)
	l.Flex = intPtr(2)
	v := bold(value, "#0f172a", linebot.FlexTextSizeTypeSm)
	v.Flex = intPtr(5)
	return hbox(l, v)
}

func bubble(header, body, footer *linebot.BoxComponent) *linebot.BubbleContainer {
	return &linebot.BubbleContainer{
		Type:   linebot.FlexContainerTypeBubble,
		Header: header,
		Body:   body,
		Footer: footer,
	}
}

func flex(alt string, b *linebot.BubbleContainer) *linebot.FlexMessage {
	return linebot.NewFlexMessage(alt, b)
}

// ---- cards ----

// Welcome is the main menu card.
func (t *Templates) Welcome() *linebot.FlexMessage {
	s := t.Settings.Get().Welcome
	sub := text(s.Subtitle, "#1e293b", linebot.FlexTextSizeTypeSm)
	sub.Align = linebot.FlexComponentAlignTypeCenter
	msg := bold(s.Message, "#0f172a", linebot.FlexTextSizeTypeLg)
	msg.Align = linebot.FlexComponentAlignTypeCenter
	ins := text(s.Instruction, "#475569", linebot.FlexTextSizeTypeSm)
	ins.Align = linebot.FlexComponentAlignTypeCenter

	b := bubble(
		vbox(s.PrimaryColor, title(s.Title), sub),
		vbox(s.BgColor, msg, separator(s.ButtonColor), ins),
		vbox("#f1f5f9",
			button(msgAction(s.RepairBtn, CmdRepair), linebot.FlexButtonStyleTypePrimary, s.ButtonColor),
			button(msgAction(s.TrackBtn, CmdTrack), linebot.FlexButtonStyleTypeSecondary, ""),
			button(msgAction("🔄 เริ่มใหม่", CmdReset), linebot.FlexButtonStyleTypeLink, "#64748b"),
		),
	)
	b.Size = linebot.FlexBubbleSizeTypeKilo
	return flex(s.Title, b)
}

// PersonalInfoForm invites the user to open the personal-details form.
func (t *Templates) PersonalInfoForm(userID string) *linebot.FlexMessage {
	s := t.Settings.Get().Form
	return flex(s.Title, bubble(
		vbox(s.PrimaryColor, title(s.Title)),
		vbox(s.BgColor,
			bold(s.Description, "#0f172a", linebot.FlexTextSizeTypeMd),
			text(s.Instruction, "#475569", linebot.FlexTextSizeTypeSm),
			separator(s.PrimaryColor),
			text("👤 คำนำหน้า ชื่อ นามสกุล", "#334155", linebot.FlexTextSizeTypeSm),
			text("🎂 อายุ เชื้อชาติ สัญชาติ", "#334155", linebot.FlexTextSizeTypeSm),
			text("📱 หมายเลขโทรศัพท์", "#334155", linebot.FlexTextSizeTypeSm),
			text("🏠 ที่อยู่ (บ้านเลขที่ หมู่ที่)", "#334155", linebot.FlexTextSizeTypeSm),
		),
		vbox("#fff7ed",
			button(uriAction("📝 เปิดฟอร์มกรอกข้อมูล", t.PersonalFormURL(userID)), linebot.FlexButtonStyleTypePrimary, s.PrimaryColor),
			button(msgAction("❌ ยกเลิก", CmdCancel), linebot.FlexButtonStyleTypeSecondary, ""),
		),
	))
}

// RepairForm invites the user to open the repair report form.
func (t *Templates) RepairForm(userID string) *linebot.FlexMessage {
	s := t.Settings.Get().Form
	return flex("แบบฟอร์มแจ้งซ่อมไฟฟ้า", bubble(
		vbox(s.PrimaryColor, title("🔧 แจ้งซ่อมไฟฟ้า")),
		vbox(s.BgColor,
			bold("กรอกแบบฟอร์มแจ้งซ่อม", "#0f172a", linebot.FlexTextSizeTypeMd),
			text("ระบุรายละเอียดปัญหาไฟฟ้าพร้อมตำแหน่งที่ตั้ง", "#475569", linebot.FlexTextSizeTypeSm),
			separator(s.PrimaryColor),
			text("🗼 รหัสเสาไฟฟ้า (หากทราบ)", "#334155", linebot.FlexTextSizeTypeSm),
			text("📍 ตำแหน่งที่ตั้ง/พิกัด GPS", "#334155", linebot.FlexTextSizeTypeSm),
			text("⚠️ ลักษณะปัญหา/อาการ", "#334155", linebot.FlexTextSizeTypeSm),
			text("📸 รูปภาพประกอบ (ถ้ามี)", "#334155", linebot.FlexTextSizeTypeSm),
		),
		vbox("#fff7ed",
			button(uriAction("📝 เปิดฟอร์มแจ้งซ่อม", t.RepairFormURL(userID)), linebot.FlexButtonStyleTypePrimary, s.PrimaryColor),
		),
	))
}

func orUnspecified(s string) string {
	if s == "" {
		return notSpecified
	}
	return s
}

// PersonalInfoConfirmation shows the collected details with confirm, edit
// and cancel choices.
func (t *Templates) PersonalInfoConfirmation(p domain.PersonalInfo) *linebot.FlexMessage {
	s := t.Settings.Get().Confirm
	age := notSpecified
	if p.Age > 0 {
		age = fmt.Sprintf("%d ปี", p.Age)
	}
	return flex(s.Title, bubble(
		vbox(s.PrimaryColor, title(s.Title)),
		vbox(s.BgColor,
			bold("👤 "+s.Message, "#0f172a", linebot.FlexTextSizeTypeMd),
			text(s.Instruction, "#475569", linebot.FlexTextSizeTypeSm),
			separator(s.PrimaryColor),
			row("👤 ชื่อ:", fmt.Sprintf("%s%s %s", p.TitlePrefix, p.FirstName, p.LastName)),
			row("🎂 อายุ:", age),
			row("🌏 เชื้อชาติ:", orUnspecified(p.Ethnicity)),
			row("🏳️ สัญชาติ:", orUnspecified(p.Nationality)),
			row("📱 โทร:", orUnspecified(p.Phone)),
			row("🏠 ที่อยู่:", fmt.Sprintf("บ้านเลขที่ %s, %s", p.HouseNo, p.Moo)),
		),
		vbox("#ffffff",
			button(msgAction("✅ ถูกต้อง ดำเนินการต่อ", CmdConfirmData), linebot.FlexButtonStyleTypePrimary, s.PrimaryColor),
			button(msgAction("✏️ แก้ไขข้อมูล", CmdEditData), linebot.FlexButtonStyleTypeSecondary, ""),
			button(msgAction("❌ ยกเลิก", CmdCancel), linebot.FlexButtonStyleTypeLink, "#64748b"),
		),
	))
}

// InvalidAction re-offers the confirmation choices.
func (t *Templates) InvalidAction() *linebot.FlexMessage {
	return flex("❓ กรุณาเลือกจากตัวเลือกที่ให้ไว้", bubble(
		vbox("#fef3c7", title("❓ คำสั่งไม่ถูกต้อง")),
		vbox("#ffffff",
			text("กรุณาเลือกจากตัวเลือกด้านล่าง", "#475569", linebot.FlexTextSizeTypeSm),
			bold("เลือกการดำเนินการ:", "#0f172a", linebot.FlexTextSizeTypeSm),
		),
		vbox("#ffffff",
			button(msgAction("✅ ยืนยันข้อมูล", CmdConfirmData), linebot.FlexButtonStyleTypePrimary, "#10b981"),
			button(msgAction("✏️ แก้ไขข้อมูล", CmdEditData), linebot.FlexButtonStyleTypeSecondary, ""),
			button(msgAction("❌ ยกเลิก", CmdCancel), linebot.FlexButtonStyleTypeLink, "#64748b"),
		),
	))
}

func coords(lat, lng *float64) string {
	if lat == nil || lng == nil {
		return notSpecified
	}
	return fmt.Sprintf("%.4f, %.4f", *lat, *lng)
}

// RepairConfirmation acknowledges a stored repair request.
func (t *Templates) RepairConfirmation(r *domain.RepairRequest) *linebot.FlexMessage {
	s := t.Settings.Get().Confirm
	photo := "❌ ไม่มี"
	if r.Photo != "" {
		photo = "✅ มี"
	}
	return flex("การแจ้งซ่อมเลขที่ "+r.RequestID+" สำเร็จ", bubble(
		vbox(s.PrimaryColor, title("✅ แจ้งซ่อมสำเร็จ")),
		vbox(s.BgColor,
			text("🎫 เลขที่การแจ้งซ่อม", "#475569", linebot.FlexTextSizeTypeSm),
			bold(r.RequestID, "#0f172a", linebot.FlexTextSizeTypeXxl),
			separator(s.PrimaryColor),
			row("🗼 รหัสเสา:", orUnspecified(r.PoleID)),
			row("📍 ตำแหน่ง:", coords(r.Latitude, r.Longitude)),
			row("⚠️ ปัญหา:", r.ProblemDescription),
			row("📸 รูปภาพ:", photo),
			separator(s.PrimaryColor),
			text("📞 เจ้าหน้าที่จะดำเนินการตรวจสอบและติดต่อกลับโดยเร็วที่สุด", "#475569", linebot.FlexTextSizeTypeXs),
		),
		vbox("#ffffff",
			button(postbackAction("📋 คัดลอกรหัสแจ้งซ่อม", copyRequestPrefix+r.RequestID, r.RequestID), linebot.FlexButtonStyleTypeSecondary, ""),
			button(msgAction("📊 ติดตามสถานะ", CmdTrack), linebot.FlexButtonStyleTypePrimary, s.PrimaryColor),
		),
	))
}

type statusLook struct {
	emoji string
	color string
	bg    string
}

func (t *Templates) statusLook(st domain.Status) statusLook {
	c := t.Settings.Get().Status
	switch st {
	case domain.StatusApprovedAwaitingTech:
		return statusLook{"✅", c.ApprovedColor, "#f0fdf4"}
	case domain.StatusInProgress:
		return statusLook{"🔧", c.ProgressColor, "#f0f9ff"}
	case domain.StatusCompleted:
		return statusLook{"🎉", c.CompleteColor, "#f0fdf4"}
	case domain.StatusRejected:
		return statusLook{"❌", c.RejectedColor, "#fef2f2"}
	case domain.StatusCancelled:
		return statusLook{"🚫", c.CancelledColor, "#f9fafb"}
	default:
		return statusLook{"⏳", c.PendingColor, "#fff7ed"}
	}
}

// StatusUpdate tells the user about a status change, with optional notes.
func (t *Templates) StatusUpdate(r *domain.RepairRequest, st domain.Status, notes string) *linebot.FlexMessage {
	look := t.statusLook(st)
	body := []linebot.FlexComponent{
		bold("🎫 "+r.RequestID, "#0f172a", linebot.FlexTextSizeTypeLg),
		bold("สถานะ: "+st.Label(), look.color, linebot.FlexTextSizeTypeMd),
	}
	if notes != "" {
		body = append(body,
			separator(look.color),
			bold("📝 หมายเหตุจากเจ้าหน้าที่:", "#334155", linebot.FlexTextSizeTypeSm),
			text(notes, "#475569", linebot.FlexTextSizeTypeSm),
		)
	}
	return flex("อัปเดตสถานะ: "+st.Label(), bubble(
		vbox(look.color, title(look.emoji+" อัปเดตสถานะ")),
		vbox(look.bg, body...),
		vbox("#ffffff",
			button(msgAction("📊 ติดตามสถานะอื่นๆ", CmdTrack), linebot.FlexButtonStyleTypePrimary, look.color),
		),
	))
}

// TrackingMethod asks how the user wants to look up a request.
func (t *Templates) TrackingMethod() *linebot.FlexMessage {
	s := t.Settings.Get().Welcome
	return flex("เลือกวิธีติดตามการซ่อม", bubble(
		vbox(s.PrimaryColor, title("📊 ติดตามการซ่อม")),
		vbox(s.BgColor,
			bold("🔍 เลือกวิธีติดตาม", "#0f172a", linebot.FlexTextSizeTypeMd),
			text("กรุณาเลือกวิธีการค้นหาข้อมูลการแจ้งซ่อมของท่าน", "#475569", linebot.FlexTextSizeTypeSm),
		),
		vbox("#f1f5f9",
			button(msgAction("🎫 ใช้เลขที่การแจ้งซ่อม", CmdTrackByID), linebot.FlexButtonStyleTypePrimary, s.ButtonColor),
			button(msgAction("📱 ใช้เบอร์โทรศัพท์", CmdTrackByPhone), linebot.FlexButtonStyleTypeSecondary, ""),
			button(msgAction("🔄 กลับหน้าแรก", CmdReset), linebot.FlexButtonStyleTypeLink, "#64748b"),
		),
	))
}

var starLabels = [5]string{"⭐", "⭐⭐", "⭐⭐⭐", "⭐⭐⭐⭐", "⭐⭐⭐⭐⭐"}

// CompletionWithRating announces completion and offers quick ratings 1-5
// plus a link to the long feedback form.
func (t *Templates) CompletionWithRating(r *domain.RepairRequest) *linebot.FlexMessage {
	s := t.Settings.Get().Confirm
	stars := make([]linebot.FlexComponent, 0, 5)
	for i := 1; i <= 5; i++ {
		stars = append(stars, button(
			postbackAction(starLabels[i-1], RatingPostbackData(r.RequestID, i), fmt.Sprintf("ให้คะแนน %d ดาว", i)),
			linebot.FlexButtonStyleTypeSecondary, "",
		))
	}
	footer := append(stars,
		button(uriAction("💬 แสดงความคิดเห็นเพิ่มเติม", t.RatingFormURL(r.RequestID, r.LineUserID)), linebot.FlexButtonStyleTypePrimary, s.PrimaryColor),
		button(msgAction("⏭️ ข้าม", CmdSkipRating), linebot.FlexButtonStyleTypeLink, "#64748b"),
	)
	return flex("🎉 งานซ่อมเสร็จสิ้น - ประเมินความพึงพอใจ", bubble(
		vbox(s.PrimaryColor, title("🎉 งานซ่อมเสร็จสิ้น!")),
		vbox(s.BgColor,
			text("🎫 เลขที่การแจ้งซ่อม", "#475569", linebot.FlexTextSizeTypeSm),
			bold(r.RequestID, "#0f172a", linebot.FlexTextSizeTypeXl),
			separator(s.PrimaryColor),
			bold("⭐ ประเมินความพึงพอใจ", "#0f172a", linebot.FlexTextSizeTypeMd),
			text("ความคิดเห็นของท่านมีค่ามากต่อการพัฒนาบริการของเรา", "#475569", linebot.FlexTextSizeTypeSm),
			text("⚡ ใช้เวลาเพียง 30 วินาที", "#64748b", linebot.FlexTextSizeTypeXs),
			bold("กดเลือกคะแนนด้านล่าง:", "#334155", linebot.FlexTextSizeTypeSm),
		),
		vbox("#ffffff", footer...),
	))
}

// TrackingResult shows the first (newest) match or a not-found card.
func (t *Templates) TrackingResult(reqs []domain.RepairRequest) *linebot.FlexMessage {
	s := t.Settings.Get().Welcome
	again := vbox("#f1f5f9", button(msgAction("🔄 ค้นหาใหม่", CmdTrack), linebot.FlexButtonStyleTypePrimary, s.ButtonColor))
	if len(reqs) == 0 {
		return flex("ไม่พบข้อมูลการแจ้งซ่อม", bubble(
			vbox("#fee2e2", title("❌ ไม่พบข้อมูล")),
			vbox("#ffffff", text("ไม่พบข้อมูลการแจ้งซ่อมตามเงื่อนไขที่ระบุ", "#475569", linebot.FlexTextSizeTypeSm)),
			again,
		))
	}
	r := reqs[0]
	look := t.statusLook(r.Status)
	reported := utils.ThaiDateTime(r.DateReported, t.Location)
	body := []linebot.FlexComponent{
		bold("🎫 "+r.RequestID, "#0f172a", linebot.FlexTextSizeTypeLg),
		bold("สถานะ: "+r.Status.Label(), look.color, linebot.FlexTextSizeTypeMd),
		separator(look.color),
		text("วันที่แจ้ง: "+orUnspecified(reported), "#475569", linebot.FlexTextSizeTypeSm),
		text("ปัญหา: "+orUnspecified(r.ProblemDescription), "#475569", linebot.FlexTextSizeTypeSm),
	}
	if len(reqs) > 1 {
		body = append(body, text(fmt.Sprintf("พบทั้งหมด %d รายการ (แสดงรายการล่าสุด)", len(reqs)), "#64748b", linebot.FlexTextSizeTypeXs))
	}
	return flex("สถานะการซ่อม: "+r.Status.Label(), bubble(
		vbox(s.PrimaryColor, title("📊 ผลการค้นหา")),
		vbox(look.bg, body...),
		again,
	))
}

func intPtr(v int) *int { return &v }
