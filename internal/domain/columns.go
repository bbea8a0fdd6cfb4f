package domain

// Column maps a database column to its stable, human-facing header. Headers
// are what exports and the dashboard show; they must not change once rows
// have been exported with them.
type Column struct {
	Name   string // database column
	Header string // display header
}

// RepairRequestColumns is the header mapping of the repair_requests table.
var RepairRequestColumns = []Column{
	{"date_reported", "ประทับเวลา"},
	{"request_id", "เลขรับแจ้ง"},
	{"line_user_id", "LINE User ID"},
	{"line_display_name", "Line name"},
	{"title_prefix", "คำนำหน้า"},
	{"first_name", "ชื่อ"},
	{"last_name", "นามสกุล"},
	{"age", "อายุ"},
	{"ethnicity", "เชื้อชาติ"},
	{"nationality", "สัญชาติ"},
	{"phone", "เบอร์โทรติดต่อ"},
	{"house_no", "บ้านเลขที่"},
	{"moo", "หมู่ที่"},
	{"pole_id", "หมายเลขรหัสเสาไฟฟ้า"},
	{"problem_description", "สาเหตุไฟฟ้าส่องสว่างชำรุดเนื่องจาก..."},
	{"photo", "รูปภาพ"},
	{"status", "สถานะ"},
	{"technician_notes", "หมายเหตุช่าง"},
	{"signature_url", "URL ลายเซ็นผู้บริหาร"},
	{"approved_by", "ผู้อนุมัติ"},
	{"approval_timestamp", "วันที่อนุมัติ"},
	{"latitude", "พิกัดละติจูด"},
	{"longitude", "พิกัดลองจิจูด"},
	{"form_type", "ประเภทการแจ้ง"},
}

// UserProfileColumns is the header mapping of the user_profiles table.
var UserProfileColumns = []Column{
	{"created_at", "Timestamp"},
	{"line_user_id", "Line ID"},
	{"display_name", "Display Name"},
	{"title_prefix", "คำนำหน้าชื่อ"},
	{"first_name", "ชื่อจริง"},
	{"last_name", "นามสกุลจริง"},
	{"age", "อายุ"},
	{"ethnicity", "เชื้อชาติ"},
	{"nationality", "สัญชาติ"},
	{"phone", "เบอร์โทรศัพท์"},
	{"house_no", "บ้านเลขที่"},
	{"moo", "หมู่ที่"},
	{"last_active_at", "Last Active Update"},
}

// PoleColumns is the header mapping of the poles table.
var PoleColumns = []Column{
	{"pole_id", "รหัสเสาไฟฟ้า"},
	{"village", "หมู่บ้าน"},
	{"pole_type", "ประเภทเสาไฟฟ้า"},
	{"pole_subtype", "ชนิดเสาไฟฟ้า"},
	{"latitude", "พิกัด ละติจูด"},
	{"longitude", "พิกัด ลองติจูด"},
	{"lamp_type", "ชนิดหลอด"},
	{"wattage", "ขนาดวัตต์"},
	{"install_date", "วันที่ติดตั้ง"},
	{"install_company", "บริษัทผู้ติดตั้ง"},
	{"notes", "หมายเหตุ"},
	{"qr_code", "QR Code"},
}

// InventoryColumns is the header mapping of the inventory table.
var InventoryColumns = []Column{
	{"item_name", "รายการ"},
	{"unit", "หน่วย"},
	{"fiscal_year", "ปีงบประมาณ"},
	{"price_per_unit", "ราคา/หน่วย"},
	{"total_quantity", "จำนวนทั้งหมด"},
	{"added_quantity", "จำนวนเพิ่มอุปกรณ์"},
	{"used_quantity", "จำนวนการเบิก"},
	{"current_stock", "จำนวนคงเหลือ"},
	{"total_price", "ราคารวม"},
}

// AdminUserColumns is the header mapping of the admin_users table.
var AdminUserColumns = []Column{
	{"username", "Username"},
	{"password_hash", "PasswordHash"},
	{"role", "Role"},
	{"full_name", "FullName"},
	{"email", "Email"},
	{"is_active", "IsActive"},
	{"last_login", "LastLogin"},
	{"created_at", "CreatedAt"},
}

// CounterColumns is the header mapping of the system_config table.
var CounterColumns = []Column{
	{"counter_type", "Counter_Type"},
	{"period", "Period"},
	{"value", "Value"},
}

// RatingColumns is the header mapping of the ratings table.
var RatingColumns = []Column{
	{"request_id", "REQUEST_ID"},
	{"line_user_id", "LINE_USER_ID"},
	{"line_display_name", "LINE_DISPLAY_NAME"},
	{"rating_date", "RATING_DATE"},
	{"overall_rating", "OVERALL_RATING"},
	{"speed_rating", "SPEED_RATING"},
	{"quality_rating", "QUALITY_RATING"},
	{"comment", "COMMENT"},
	{"days_to_complete", "TIME_TO_COMPLETE_DAYS"},
	{"expectation_met", "EXPECTATION_MET"},
	{"phone", "PHONE"},
}

// SignatureColumns is the header mapping of the signatures table.
var SignatureColumns = []Column{
	{"file_name", "FILE_NAME"},
	{"mime_type", "MIME_TYPE"},
	{"base64_data", "BASE64_DATA"},
	{"uploaded_by", "UPLOADED_BY"},
	{"uploaded_at", "UPLOADED_AT"},
	{"file_size", "FILE_SIZE"},
	{"usage_count", "USAGE_COUNT"},
}

// TelegramConfigColumns is the header mapping of the telegram_config table.
var TelegramConfigColumns = []Column{
	{"config_key", "ConfigKey"},
	{"bot_token", "BotToken"},
	{"chat_id", "ChatID"},
	{"is_enabled", "IsEnabled"},
}

// ColumnsByTable indexes every mapping by table name.
var ColumnsByTable = map[string][]Column{
	RepairRequest{}.TableName():  RepairRequestColumns,
	UserProfile{}.TableName():    UserProfileColumns,
	Pole{}.TableName():           PoleColumns,
	InventoryItem{}.TableName():  InventoryColumns,
	AdminUser{}.TableName():      AdminUserColumns,
	PeriodCounter{}.TableName():  CounterColumns,
	Rating{}.TableName():         RatingColumns,
	Signature{}.TableName():      SignatureColumns,
	TelegramConfig{}.TableName(): TelegramConfigColumns,
}

// Headers returns the display headers of cols in order.
func Headers(cols []Column) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Header
	}
	return out
}
