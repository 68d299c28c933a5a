package client

import (
	"bytes"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/kart-storefront/internal/domain/cart"
	"github.com/xenking/kart-storefront/internal/domain/order"
	"github.com/xenking/kart-storefront/internal/domain/product"
)

// encodeQuantity encodes the body of POST and PUT /cart.
func encodeQuantity(productID string, quantity int) []byte {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("productId")
	e.Str(productID)
	e.FieldStart("quantity")
	e.Int(quantity)
	e.ObjEnd()
	return e.Bytes()
}

// encodeCustomerInfo encodes the body of POST /orders.
func encodeCustomerInfo(info order.CustomerInfo) []byte {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("customerName")
	e.Str(info.CustomerName)
	e.FieldStart("customerAddress")
	e.Str(info.CustomerAddress)
	e.ObjEnd()
	return e.Bytes()
}

// decodeString accepts a JSON string, a number (kept verbatim) or null.
func decodeString(d *jx.Decoder) (string, error) {
	switch d.Next() {
	case jx.Null:
		return "", d.Null()
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return "", err
		}
		return n.String(), nil
	default:
		return d.Str()
	}
}

// decodeDecimal reads a price without going through float64. String-encoded
// numbers are accepted.
func decodeDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	var raw string
	switch d.Next() {
	case jx.Null:
		return decimal.Zero, d.Null()
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return decimal.Zero, err
		}
		raw = s
	default:
		n, err := d.Num()
		if err != nil {
			return decimal.Zero, err
		}
		raw = n.String()
	}

	v, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "parse decimal %q", raw)
	}
	return v, nil
}

func decodeInt(d *jx.Decoder) (int, error) {
	if d.Next() == jx.Null {
		return 0, d.Null()
	}
	return d.Int()
}

func decodeProduct(d *jx.Decoder) (product.Product, error) {
	var p product.Product
	err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		var err error
		switch string(key) {
		case "id":
			p.ID, err = decodeString(d)
		case "name":
			p.Name, err = decodeString(d)
		case "description":
			p.Description, err = decodeString(d)
		case "price":
			p.Price, err = decodeDecimal(d)
		case "imageUrl":
			p.ImageURL, err = decodeString(d)
		case "category":
			p.Category, err = decodeString(d)
		case "location":
			p.Location, err = decodeString(d)
		case "stock":
			p.Stock, err = decodeInt(d)
		default:
			err = d.Skip()
		}
		return errors.Wrapf(err, "field %q", key)
	})
	return p, err
}

func decodeProducts(d *jx.Decoder) ([]product.Product, error) {
	var out []product.Product
	err := decodeArray(d, func(d *jx.Decoder) error {
		p, err := decodeProduct(d)
		if err != nil {
			return err
		}
		out = append(out, p)
		return nil
	})
	return out, err
}

func decodeLine(d *jx.Decoder) (cart.Line, error) {
	var l cart.Line
	err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		var err error
		switch string(key) {
		case "product":
			l.Product, err = decodeProduct(d)
		case "quantity":
			l.Quantity, err = decodeInt(d)
		default:
			err = d.Skip()
		}
		return errors.Wrapf(err, "field %q", key)
	})
	return l, err
}

func decodeLines(d *jx.Decoder) ([]cart.Line, error) {
	var out []cart.Line
	err := decodeArray(d, func(d *jx.Decoder) error {
		l, err := decodeLine(d)
		if err != nil {
			return err
		}
		out = append(out, l)
		return nil
	})
	return out, err
}

func decodeOrder(d *jx.Decoder) (order.Order, error) {
	var o order.Order
	err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		var err error
		switch string(key) {
		case "id":
			o.ID, err = decodeString(d)
		case "items":
			o.Items, err = decodeLines(d)
		case "totalPrice":
			o.TotalPrice, err = decodeDecimal(d)
		case "customerName":
			o.CustomerName, err = decodeString(d)
		case "customerAddress":
			o.CustomerAddress, err = decodeString(d)
		case "orderDate":
			o.OrderDate, err = decodeTime(d)
		case "status":
			var s string
			s, err = decodeString(d)
			o.Status = order.Status(s)
		default:
			err = d.Skip()
		}
		return errors.Wrapf(err, "field %q", key)
	})
	return o, err
}

func decodeOrders(d *jx.Decoder) ([]order.Order, error) {
	var out []order.Order
	err := decodeArray(d, func(d *jx.Decoder) error {
		o, err := decodeOrder(d)
		if err != nil {
			return err
		}
		out = append(out, o)
		return nil
	})
	return out, err
}

func decodeTime(d *jx.Decoder) (time.Time, error) {
	s, err := decodeString(d)
	if err != nil || s == "" {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "parse time %q", s)
	}
	return t, nil
}

// decodeArray treats null as an empty array.
func decodeArray(d *jx.Decoder, f func(d *jx.Decoder) error) error {
	if d.Next() == jx.Null {
		return d.Null()
	}
	return d.Arr(f)
}

// decodeBody decodes data with f. An empty body decodes to the zero value.
func decodeBody[T any](data []byte, f func(d *jx.Decoder) (T, error)) (T, error) {
	var zero T
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return zero, nil
	}
	v, err := f(jx.DecodeBytes(data))
	if err != nil {
		return zero, errors.Wrap(err, "decode response")
	}
	return v, nil
}
