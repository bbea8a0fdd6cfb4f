package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/khayai/repairbot/internal/domain"
	"github.com/khayai/repairbot/internal/utils"
)

// NewRequestMessage announces a freshly reported request to staff.
func NewRequestMessage(r *domain.RepairRequest, loc *time.Location) string {
	var b strings.Builder
	b.WriteString("🔔 แจ้งซ่อมใหม่\n\n")
	fmt.Fprintf(&b, "🎫 เลขที่: %s\n", r.RequestID)
	fmt.Fprintf(&b, "👤 ผู้แจ้ง: %s", strings.TrimSpace(r.FullName()))
	if r.LineDisplayName != "" {
		fmt.Fprintf(&b, " (%s)", r.LineDisplayName)
	}
	b.WriteString("\n")
	if r.Phone != "" {
		fmt.Fprintf(&b, "📱 โทร: %s\n", r.Phone)
	}
	fmt.Fprintf(&b, "🗼 รหัสเสา: %s\n", r.PoleID)
	if r.Latitude != nil && r.Longitude != nil {
		fmt.Fprintf(&b, "📍 พิกัด: %.6f, %.6f\n", *r.Latitude, *r.Longitude)
	}
	fmt.Fprintf(&b, "⚠️ ปัญหา: %s\n", r.ProblemDescription)
	fmt.Fprintf(&b, "📅 วันที่แจ้ง: %s", utils.ThaiDateTime(r.DateReported, loc))
	return b.String()
}

// StatusUpdateMessage reports a status change to staff.
func StatusUpdateMessage(r *domain.RepairRequest, st domain.Status, notes, actor string) string {
	var b strings.Builder
	b.WriteString("📋 อัปเดตสถานะงานซ่อม\n\n")
	fmt.Fprintf(&b, "🎫 เลขที่: %s\n", r.RequestID)
	fmt.Fprintf(&b, "📊 สถานะใหม่: %s\n", st.Label())
	if actor != "" {
		fmt.Fprintf(&b, "👷 โดย: %s\n", actor)
	}
	if notes != "" {
		fmt.Fprintf(&b, "📝 หมายเหตุ: %s\n", notes)
	}
	if !st.NotifiesUser() {
		b.WriteString("ℹ️ ไม่ได้ส่งแจ้งเตือนถึงผู้แจ้ง")
	}
	return strings.TrimRight(b.String(), "\n")
}

// DeliveryFailureMessage tells staff that a user push could not be
// delivered, so someone can follow up by phone.
func DeliveryFailureMessage(r *domain.RepairRequest, st domain.Status, err error) string {
	phone := r.Phone
	if phone == "" {
		phone = "-"
	}
	return fmt.Sprintf("⚠️ ส่งข้อความถึงผู้แจ้งไม่สำเร็จ\n\n🎫 เลขที่: %s\n📊 สถานะ: %s\n📱 โทร: %s\n❗ %v",
		r.RequestID, st.Label(), phone, err)
}

// TestMessage is sent by the dashboard's connectivity check.
func TestMessage(now time.Time, loc *time.Location) string {
	return "✅ ทดสอบการแจ้งเตือนระบบแจ้งซ่อมไฟฟ้า\n⏰ " + utils.ThaiDateTime(now, loc)
}
