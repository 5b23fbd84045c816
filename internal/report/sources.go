package report

import (
	"context"
	"time"

	"github.com/deliverydesk/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const createdBetween = "created_at BETWEEN ? AND ?"

type ordersSource struct{}

func (ordersSource) Name() models.DataSource { return models.SourceOrders }
func (ordersSource) model() any              { return &models.Order{} }

func (ordersSource) Fetch(ctx context.Context, db *gorm.DB, r DateRange, f Filters) ([]Record, error) {
	start, end := r.utc()
	query := db.WithContext(ctx).
		Preload("Customer").
		Preload("Business").
		Preload("Courier").
		Where(createdBetween, start, end)

	if v, ok := f.String("status"); ok {
		query = query.Where("status = ?", v)
	}
	if v, ok := f.String("paymentMethod"); ok {
		query = query.Where("payment_method = ?", v)
	}
	if v, ok := f.String("category"); ok {
		query = query.Where("category = ?", v)
	}
	if v, ok := f.Float("minTotal"); ok {
		query = query.Where("total >= ?", v)
	}
	if v, ok := f.Float("maxTotal"); ok {
		query = query.Where("total <= ?", v)
	}
	if v, ok := f.Uint("businessId"); ok {
		query = query.Where("business_id = ?", v)
	}
	if v, ok := f.Uint("courierId"); ok {
		query = query.Where("courier_id = ?", v)
	}

	var orders []models.Order
	if err := query.Order("created_at ASC, id ASC").Find(&orders).Error; err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(orders))
	for _, o := range orders {
		rec := Record{
			"id":            o.ID,
			"orderNumber":   o.OrderNumber,
			"status":        string(o.Status),
			"paymentMethod": string(o.PaymentMethod),
			"category":      o.Category,
			"total":         o.Total,
			"deliveryFee":   o.DeliveryFee,
			"address":       o.Address,
			"createdAt":     o.CreatedAt,
			"deliveredAt":   timeOrNil(o.DeliveredAt),
		}
		if o.Customer != nil {
			rec["customerName"] = o.Customer.Name
			rec["customerEmail"] = o.Customer.Email
			rec["customerPhone"] = o.Customer.Phone
		}
		if o.Business != nil {
			rec["businessName"] = o.Business.Name
			rec["businessCategory"] = o.Business.Category
		}
		if o.Courier != nil {
			rec["courierName"] = o.Courier.Name
			rec["courierPhone"] = o.Courier.Phone
		}
		records = append(records, rec)
	}
	return records, nil
}

func (ordersSource) Formats() map[string]FormatKind {
	return map[string]FormatKind{
		"total":         FormatCurrency,
		"deliveryFee":   FormatCurrency,
		"createdAt":     FormatDate,
		"deliveredAt":   FormatDateTime,
		"paymentMethod": FormatPaymentMethod,
		"status":        FormatOrderStatus,
	}
}

func (ordersSource) Labels() map[string]string {
	return map[string]string{
		"id":               "ID",
		"orderNumber":      "Sipariş No",
		"status":           "Durum",
		"paymentMethod":    "Ödeme Yöntemi",
		"category":         "Kategori",
		"total":            "Tutar",
		"deliveryFee":      "Teslimat Ücreti",
		"address":          "Adres",
		"createdAt":        "Tarih",
		"deliveredAt":      "Teslim Tarihi",
		"customerName":     "Müşteri",
		"customerEmail":    "Müşteri E-posta",
		"customerPhone":    "Müşteri Telefon",
		"businessName":     "İşletme",
		"businessCategory": "İşletme Kategorisi",
		"courierName":      "Kurye",
		"courierPhone":     "Kurye Telefon",
	}
}

func (ordersSource) DefaultColumns() []string {
	return []string{"orderNumber", "customerName", "businessName", "courierName", "total", "paymentMethod", "status", "createdAt"}
}

type couriersSource struct{}

func (couriersSource) Name() models.DataSource { return models.SourceCouriers }
func (couriersSource) model() any              { return &models.Courier{} }

func (couriersSource) Fetch(ctx context.Context, db *gorm.DB, r DateRange, f Filters) ([]Record, error) {
	start, end := r.utc()
	query := db.WithContext(ctx).
		Preload("Deliveries").
		Where(createdBetween, start, end)

	if v, ok := f.String("status"); ok {
		query = query.Where("status = ?", v)
	}
	if v, ok := f.String("vehicleType"); ok {
		query = query.Where("vehicle_type = ?", v)
	}
	if v, ok := f.Float("minRating"); ok {
		query = query.Where("rating >= ?", v)
	}

	var couriers []models.Courier
	if err := query.Order("created_at ASC, id ASC").Find(&couriers).Error; err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(couriers))
	for _, c := range couriers {
		var (
			completed      int
			totalMs, timed int64
			distance       float64
		)
		earnings := decimal.Zero
		for _, d := range c.Deliveries {
			if d.Status == models.DeliveryStatusDelivered {
				completed++
				earnings = earnings.Add(d.Earnings)
			}
			if d.DurationMs > 0 {
				totalMs += d.DurationMs
				timed++
			}
			distance += d.DistanceKm
		}

		rec := Record{
			"id":                  c.ID,
			"name":                c.Name,
			"email":               c.Email,
			"phone":               c.Phone,
			"vehicleType":         c.VehicleType,
			"status":              string(c.Status),
			"rating":              c.Rating,
			"totalDeliveries":     len(c.Deliveries),
			"completedDeliveries": completed,
			"totalDistance":       distance,
			"totalEarnings":       earnings,
			"createdAt":           c.CreatedAt,
		}
		if timed > 0 {
			rec["averageDeliveryTime"] = totalMs / timed
		}
		records = append(records, rec)
	}
	return records, nil
}

func (couriersSource) Formats() map[string]FormatKind {
	return map[string]FormatKind{
		"status":              FormatCourierStatus,
		"averageDeliveryTime": FormatDuration,
		"totalEarnings":       FormatCurrency,
		"createdAt":           FormatDate,
	}
}

func (couriersSource) Labels() map[string]string {
	return map[string]string{
		"id":                  "ID",
		"name":                "Ad Soyad",
		"email":               "E-posta",
		"phone":               "Telefon",
		"vehicleType":         "Araç Tipi",
		"status":              "Durum",
		"rating":              "Puan",
		"totalDeliveries":     "Toplam Teslimat",
		"completedDeliveries": "Tamamlanan Teslimat",
		"averageDeliveryTime": "Ort. Teslimat Süresi",
		"totalDistance":       "Toplam Mesafe (km)",
		"totalEarnings":       "Toplam Kazanç",
		"createdAt":           "Kayıt Tarihi",
	}
}

func (couriersSource) DefaultColumns() []string {
	return []string{"name", "phone", "vehicleType", "status", "rating", "completedDeliveries", "averageDeliveryTime", "totalEarnings"}
}

type businessesSource struct{}

func (businessesSource) Name() models.DataSource { return models.SourceBusinesses }
func (businessesSource) model() any              { return &models.Business{} }

func (businessesSource) Fetch(ctx context.Context, db *gorm.DB, r DateRange, f Filters) ([]Record, error) {
	start, end := r.utc()
	query := db.WithContext(ctx).
		Preload("Orders").
		Where(createdBetween, start, end)

	if v, ok := f.String("category"); ok {
		query = query.Where("category = ?", v)
	}
	if v, ok := f.Bool("isActive"); ok {
		query = query.Where("is_active = ?", v)
	}

	var businesses []models.Business
	if err := query.Order("created_at ASC, id ASC").Find(&businesses).Error; err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(businesses))
	for _, b := range businesses {
		revenue := decimal.Zero
		counted := 0
		for _, o := range b.Orders {
			if o.Status == models.OrderStatusCancelled {
				continue
			}
			revenue = revenue.Add(o.Total)
			counted++
		}

		rec := Record{
			"id":           b.ID,
			"name":         b.Name,
			"email":        b.Email,
			"phone":        b.Phone,
			"category":     b.Category,
			"address":      b.Address,
			"isActive":     b.IsActive,
			"totalOrders":  len(b.Orders),
			"totalRevenue": revenue,
			"createdAt":    b.CreatedAt,
		}
		if counted > 0 {
			rec["averageOrderValue"] = revenue.Div(decimal.NewFromInt(int64(counted)))
		}
		records = append(records, rec)
	}
	return records, nil
}

func (businessesSource) Formats() map[string]FormatKind {
	return map[string]FormatKind{
		"isActive":          FormatActive,
		"totalRevenue":      FormatCurrency,
		"averageOrderValue": FormatCurrency,
		"createdAt":         FormatDate,
	}
}

func (businessesSource) Labels() map[string]string {
	return map[string]string{
		"id":                "ID",
		"name":              "İşletme Adı",
		"email":             "E-posta",
		"phone":             "Telefon",
		"category":          "Kategori",
		"address":           "Adres",
		"isActive":          "Durum",
		"totalOrders":       "Toplam Sipariş",
		"totalRevenue":      "Toplam Ciro",
		"averageOrderValue": "Ort. Sipariş Tutarı",
		"createdAt":         "Kayıt Tarihi",
	}
}

func (businessesSource) DefaultColumns() []string {
	return []string{"name", "category", "phone", "isActive", "totalOrders", "totalRevenue", "createdAt"}
}

type customersSource struct{}

func (customersSource) Name() models.DataSource { return models.SourceCustomers }
func (customersSource) model() any              { return &models.Customer{} }

func (customersSource) Fetch(ctx context.Context, db *gorm.DB, r DateRange, f Filters) ([]Record, error) {
	start, end := r.utc()
	query := db.WithContext(ctx).
		Preload("Orders").
		Where(createdBetween, start, end)

	if v, ok := f.String("search"); ok {
		like := "%" + v + "%"
		query = query.Where("name LIKE ? OR email LIKE ?", like, like)
	}

	var customers []models.Customer
	if err := query.Order("created_at ASC, id ASC").Find(&customers).Error; err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(customers))
	for _, c := range customers {
		spent := decimal.Zero
		var last *time.Time
		for i, o := range c.Orders {
			if o.Status != models.OrderStatusCancelled {
				spent = spent.Add(o.Total)
			}
			if last == nil || o.CreatedAt.After(*last) {
				last = &c.Orders[i].CreatedAt
			}
		}

		records = append(records, Record{
			"id":          c.ID,
			"name":        c.Name,
			"email":       c.Email,
			"phone":       c.Phone,
			"address":     c.Address,
			"totalOrders": len(c.Orders),
			"totalSpent":  spent,
			"lastOrderAt": timeOrNil(last),
			"createdAt":   c.CreatedAt,
		})
	}
	return records, nil
}

func (customersSource) Formats() map[string]FormatKind {
	return map[string]FormatKind{
		"totalSpent":  FormatCurrency,
		"lastOrderAt": FormatDate,
		"createdAt":   FormatDate,
	}
}

func (customersSource) Labels() map[string]string {
	return map[string]string{
		"id":          "ID",
		"name":        "Ad Soyad",
		"email":       "E-posta",
		"phone":       "Telefon",
		"address":     "Adres",
		"totalOrders": "Toplam Sipariş",
		"totalSpent":  "Toplam Harcama",
		"lastOrderAt": "Son Sipariş",
		"createdAt":   "Kayıt Tarihi",
	}
}

func (customersSource) DefaultColumns() []string {
	return []string{"name", "email", "phone", "totalOrders", "totalSpent", "lastOrderAt"}
}

type deliveriesSource struct{}

func (deliveriesSource) Name() models.DataSource { return models.SourceDeliveries }
func (deliveriesSource) model() any              { return &models.Delivery{} }

func (deliveriesSource) Fetch(ctx context.Context, db *gorm.DB, r DateRange, f Filters) ([]Record, error) {
	start, end := r.utc()
	query := db.WithContext(ctx).
		Preload("Order.Customer").
		Preload("Order.Business").
		Preload("Courier").
		Where(createdBetween, start, end)

	if v, ok := f.String("status"); ok {
		query = query.Where("status = ?", v)
	}
	if v, ok := f.Uint("courierId"); ok {
		query = query.Where("courier_id = ?", v)
	}
	if v, ok := f.Float("minDuration"); ok {
		query = query.Where("duration_ms >= ?", v)
	}
	if v, ok := f.Float("maxDuration"); ok {
		query = query.Where("duration_ms <= ?", v)
	}

	var deliveries []models.Delivery
	if err := query.Order("created_at ASC, id ASC").Find(&deliveries).Error; err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(deliveries))
	for _, d := range deliveries {
		rec := Record{
			"id":          d.ID,
			"status":      string(d.Status),
			"pickedUpAt":  timeOrNil(d.PickedUpAt),
			"deliveredAt": timeOrNil(d.DeliveredAt),
			"distance":    d.DistanceKm,
			"earnings":    d.Earnings,
			"createdAt":   d.CreatedAt,
		}
		if d.DurationMs > 0 {
			rec["duration"] = d.DurationMs
		}
		if d.Courier != nil {
			rec["courierName"] = d.Courier.Name
		}
		if d.Order != nil {
			rec["orderNumber"] = d.Order.OrderNumber
			if d.Order.Customer != nil {
				rec["customerName"] = d.Order.Customer.Name
			}
			if d.Order.Business != nil {
				rec["businessName"] = d.Order.Business.Name
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

func (deliveriesSource) Formats() map[string]FormatKind {
	return map[string]FormatKind{
		"status":      FormatDeliveryStatus,
		"pickedUpAt":  FormatDateTime,
		"deliveredAt": FormatDateTime,
		"duration":    FormatDuration,
		"earnings":    FormatCurrency,
		"createdAt":   FormatDate,
	}
}

func (deliveriesSource) Labels() map[string]string {
	return map[string]string{
		"id":           "ID",
		"orderNumber":  "Sipariş No",
		"courierName":  "Kurye",
		"businessName": "İşletme",
		"customerName": "Müşteri",
		"status":       "Durum",
		"pickedUpAt":   "Teslim Alma",
		"deliveredAt":  "Teslim Etme",
		"duration":     "Süre",
		"distance":     "Mesafe (km)",
		"earnings":     "Kazanç",
		"createdAt":    "Tarih",
	}
}

func (deliveriesSource) DefaultColumns() []string {
	return []string{"orderNumber", "courierName", "businessName", "status", "pickedUpAt", "deliveredAt", "duration"}
}
