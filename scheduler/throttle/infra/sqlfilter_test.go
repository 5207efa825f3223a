package infra

import (
	"testing"

	"job-throttle/scheduler/throttle/domain"

	"github.com/doug-martin/goqu/v9"
	"github.com/stretchr/testify/require"
)

func TestSQLFilter_SelectExcludesThrottledClasses(t *testing.T) {
	f := SQLFilter{}

	sql, args, err := f.Select("jobs", domain.ClassFilter{Class: "ReportJob"})
	require.NoError(t, err)
	require.Empty(t, args)
	require.Equal(t, `SELECT * FROM "jobs" WHERE ("job_class" != 'ReportJob')`, sql)

	sql, _, err = f.Select("jobs",
		domain.ClassFilter{Class: "ReportJob"},
		goqu.C("priority").Neq("urgent"),
	)
	require.NoError(t, err)
	require.Equal(t, `SELECT * FROM "jobs" WHERE (("job_class" != 'ReportJob') AND ("priority" != 'urgent'))`, sql)
}

func TestSQLFilter_CustomColumnAndUnsupported(t *testing.T) {
	f := SQLFilter{ClassColumn: "handler_class"}

	e, err := f.Expression(&domain.ClassFilter{Class: "ReportJob"})
	require.NoError(t, err)
	require.NotNil(t, e)

	_, err = f.Expression(map[string]string{"excludeOnly": "urgent"})
	require.ErrorIs(t, err, ErrUnsupportedFilter)

	_, _, err = f.Select("jobs", 42)
	require.ErrorIs(t, err, ErrUnsupportedFilter)
}

func TestSQLFilter_String(t *testing.T) {
	f := SQLFilter{}
	require.Equal(t, `("job_class" != 'ReportJob')`, f.String(domain.ClassFilter{Class: "ReportJob"}))
	require.Equal(t, "map[excludeOnly:urgent]", f.String(map[string]string{"excludeOnly": "urgent"}))
}
