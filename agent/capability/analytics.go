package capability

import (
	"context"
	"fmt"
	"net/http"

	contractx "github.com/johnfletcher78/antigravity-agent/agent/contract"
)

const analyticsBaseURL = "https://analyticsdata.googleapis.com/v1beta"

// AnalyticsProvider adapts the GA4 Data API for read-only reporting
// lookups.
type AnalyticsProvider struct {
	client *googleClient
}

var _ contractx.Provider = (*AnalyticsProvider)(nil)

func NewAnalyticsProvider(cfg GoogleConfig) (*AnalyticsProvider, error) {
	client, err := newGoogleClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("analytics provider: %w", err)
	}
	return &AnalyticsProvider{client: client}, nil
}

func (p *AnalyticsProvider) Name() string { return "analytics" }

func dateRangeParams() []contractx.ToolParam {
	return []contractx.ToolParam{
		{Name: "property_id", Type: contractx.ParamString, Description: "GA4 property ID", Required: true},
		{Name: "start_date", Type: contractx.ParamString, Description: "Start date (default 30daysAgo)"},
		{Name: "end_date", Type: contractx.ParamString, Description: "End date (default today)"},
	}
}

func (p *AnalyticsProvider) Operations() []contractx.Operation {
	return []contractx.Operation{
		{
			Descriptor: contractx.ToolDescriptor{
				Name:        "get_analytics_overview",
				Description: "Overview metrics for a GA4 property: sessions, users, pageviews, bounce rate.",
				Params:      dateRangeParams(),
			},
			Handler: p.getOverview,
		},
		{
			Descriptor: contractx.ToolDescriptor{
				Name:        "get_top_pages",
				Description: "Most viewed pages for a GA4 property.",
				Params: append(dateRangeParams(),
					contractx.ToolParam{Name: "limit", Type: contractx.ParamInteger, Description: "Maximum pages to return (default 10)"}),
			},
			Handler: p.getTopPages,
		},
		{
			Descriptor: contractx.ToolDescriptor{
				Name:        "get_traffic_sources",
				Description: "Sessions per traffic channel for a GA4 property.",
				Params:      dateRangeParams(),
			},
			Handler: p.getTrafficSources,
		},
		{
			Descriptor: contractx.ToolDescriptor{
				Name:        "get_realtime_data",
				Description: "Active users right now for a GA4 property.",
				Params: []contractx.ToolParam{
					{Name: "property_id", Type: contractx.ParamString, Description: "GA4 property ID", Required: true},
				},
			},
			Handler: p.getRealtime,
		},
	}
}

type reportResponse struct {
	Rows []struct {
		DimensionValues []struct {
			Value string `json:"value"`
		} `json:"dimensionValues"`
		MetricValues []struct {
			Value string `json:"value"`
		} `json:"metricValues"`
	} `json:"rows"`
}

func (p *AnalyticsProvider) runReport(ctx context.Context, propertyID string, body map[string]any) (*reportResponse, error) {
	endpoint := fmt.Sprintf("%s/properties/%s:runReport", analyticsBaseURL, propertyID)
	out := new(reportResponse)
	if err := p.client.do(ctx, http.MethodPost, endpoint, body, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *AnalyticsProvider) getOverview(ctx context.Context, args map[string]any) (contractx.ToolResult, error) {
	propertyID, err := requireString(args, "property_id")
	if err != nil {
		return failure(err.Error()), nil
	}

	report, err := p.runReport(ctx, propertyID, map[string]any{
		"dateRanges": []map[string]any{{
			"startDate": stringArg(args, "start_date", "30daysAgo"),
			"endDate":   stringArg(args, "end_date", "today"),
		}},
		"metrics": []map[string]any{
			{"name": "sessions"},
			{"name": "activeUsers"},
			{"name": "screenPageViews"},
			{"name": "bounceRate"},
		},
	})
	if err != nil {
		return failuref("analytics overview: %v", err), nil
	}
	if len(report.Rows) == 0 {
		return failure("no data available"), nil
	}

	metrics := report.Rows[0].MetricValues
	result := contractx.ToolResult{"success": true, "property_id": propertyID}
	names := []string{"sessions", "users", "pageviews", "bounce_rate"}
	for i, name := range names {
		if i < len(metrics) {
			result[name] = metrics[i].Value
		}
	}
	return result, nil
}

func (p *AnalyticsProvider) getTopPages(ctx context.Context, args map[string]any) (contractx.ToolResult, error) {
	propertyID, err := requireString(args, "property_id")
	if err != nil {
		return failure(err.Error()), nil
	}

	report, err := p.runReport(ctx, propertyID, map[string]any{
		"dateRanges": []map[string]any{{
			"startDate": stringArg(args, "start_date", "30daysAgo"),
			"endDate":   stringArg(args, "end_date", "today"),
		}},
		"dimensions": []map[string]any{{"name": "pagePath"}},
		"metrics":    []map[string]any{{"name": "screenPageViews"}},
		"orderBys": []map[string]any{{
			"metric": map[string]any{"metricName": "screenPageViews"}, "desc": true,
		}},
		"limit": intArg(args, "limit", 10),
	})
	if err != nil {
		return failuref("top pages: %v", err), nil
	}
	if len(report.Rows) == 0 {
		return failure("no data available"), nil
	}

	pages := make([]map[string]any, 0, len(report.Rows))
	for _, row := range report.Rows {
		page := map[string]any{}
		if len(row.DimensionValues) > 0 {
			page["path"] = row.DimensionValues[0].Value
		}
		if len(row.MetricValues) > 0 {
			page["views"] = row.MetricValues[0].Value
		}
		pages = append(pages, page)
	}
	return contractx.ToolResult{"success": true, "property_id": propertyID, "pages": pages}, nil
}

func (p *AnalyticsProvider) getTrafficSources(ctx context.Context, args map[string]any) (contractx.ToolResult, error) {
	propertyID, err := requireString(args, "property_id")
	if err != nil {
		return failure(err.Error()), nil
	}

	report, err := p.runReport(ctx, propertyID, map[string]any{
		"dateRanges": []map[string]any{{
			"startDate": stringArg(args, "start_date", "30daysAgo"),
			"endDate":   stringArg(args, "end_date", "today"),
		}},
		"dimensions": []map[string]any{{"name": "sessionDefaultChannelGroup"}},
		"metrics":    []map[string]any{{"name": "sessions"}},
	})
	if err != nil {
		return failuref("traffic sources: %v", err), nil
	}
	if len(report.Rows) == 0 {
		return failure("no data available"), nil
	}

	sources := make([]map[string]any, 0, len(report.Rows))
	for _, row := range report.Rows {
		source := map[string]any{}
		if len(row.DimensionValues) > 0 {
			source["channel"] = row.DimensionValues[0].Value
		}
		if len(row.MetricValues) > 0 {
			source["sessions"] = row.MetricValues[0].Value
		}
		sources = append(sources, source)
	}
	return contractx.ToolResult{"success": true, "property_id": propertyID, "sources": sources}, nil
}

func (p *AnalyticsProvider) getRealtime(ctx context.Context, args map[string]any) (contractx.ToolResult, error) {
	propertyID, err := requireString(args, "property_id")
	if err != nil {
		return failure(err.Error()), nil
	}

	endpoint := fmt.Sprintf("%s/properties/%s:runRealtimeReport", analyticsBaseURL, propertyID)
	report := new(reportResponse)
	err = p.client.do(ctx, http.MethodPost, endpoint, map[string]any{
		"metrics": []map[string]any{{"name": "activeUsers"}},
	}, report)
	if err != nil {
		return failuref("realtime data: %v", err), nil
	}

	activeUsers := "0"
	if len(report.Rows) > 0 && len(report.Rows[0].MetricValues) > 0 {
		activeUsers = report.Rows[0].MetricValues[0].Value
	}
	return contractx.ToolResult{"success": true, "property_id": propertyID, "active_users": activeUsers}, nil
}
