// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package schema

// DetectorDataPath is where the reconstructed frame stack is written. It is
// reserved: no metadata key may be placed there.
const DetectorDataPath = "entry1/instrument_1/detector_1/data"

var canonical = []string{
	"entry1/end_time",
	"entry1/instrument_1/detector_1/count_time",
	"entry1/instrument_1/detector_1/data",
	"entry1/instrument_1/detector_1/description",
	"entry1/instrument_1/detector_1/detector_readout_time",
	"entry1/instrument_1/detector_1/distance",
	"entry1/instrument_1/detector_1/exposures",
	"entry1/instrument_1/detector_1/period",
	"entry1/instrument_1/detector_1/x_pixel_size",
	"entry1/instrument_1/detector_1/y_pixel_size",
	"entry1/instrument_1/labview_data/DIAG112_Diode_diode",
	"entry1/instrument_1/labview_data/DetectorDiodeCurrent_diode",
	"entry1/instrument_1/labview_data/EPUPOL_diode",
	"entry1/instrument_1/labview_data/EPU_Polarization",
	"entry1/instrument_1/labview_data/EPU_Polarization_user_setpoint",
	"entry1/instrument_1/labview_data/LS_LLHTA",
	"entry1/instrument_1/labview_data/LS_LLHTA_user_setpoint",
	"entry1/instrument_1/labview_data/LS_LLHTB",
	"entry1/instrument_1/labview_data/LS_LLHTB_user_setpoint",
	"entry1/instrument_1/labview_data/XS111LeftBladecurrent_diode",
	"entry1/instrument_1/labview_data/XS111RLRL_diode",
	"entry1/instrument_1/labview_data/XS111RightBladecurrent_diode",
	"entry1/instrument_1/labview_data/beamline_energy",
	"entry1/instrument_1/labview_data/beamline_energy_user_setpoint",
	"entry1/instrument_1/labview_data/det_translate",
	"entry1/instrument_1/labview_data/det_translate_user_setpoint",
	"entry1/instrument_1/labview_data/detector_rotate",
	"entry1/instrument_1/labview_data/detector_rotate_user_setpoint",
	"entry1/instrument_1/labview_data/diagnostic",
	"entry1/instrument_1/labview_data/diagnostic_user_setpoint",
	"entry1/instrument_1/labview_data/fake",
	"entry1/instrument_1/labview_data/fake_user_setpoint",
	"entry1/instrument_1/labview_data/pinhole_x",
	"entry1/instrument_1/labview_data/pinhole_x_user_setpoint",
	"entry1/instrument_1/labview_data/pinhole_y",
	"entry1/instrument_1/labview_data/pinhole_y_user_setpoint",
	"entry1/instrument_1/labview_data/sample_lift",
	"entry1/instrument_1/labview_data/sample_lift_user_setpoint",
	"entry1/instrument_1/labview_data/sample_rotate_steppertheta",
	"entry1/instrument_1/labview_data/sample_rotate_steppertheta_user_setpoint",
	"entry1/instrument_1/labview_data/sample_top",
	"entry1/instrument_1/labview_data/sample_top_user_setpoint",
	"entry1/instrument_1/labview_data/sample_translate",
	"entry1/instrument_1/labview_data/sample_translate_user_setpoint",
	"entry1/instrument_1/labview_data/sample_vertical_rotation",
	"entry1/instrument_1/labview_data/sample_vertical_rotation_user_setpoint",
	"entry1/instrument_1/labview_data/sample_vertical_translate",
	"entry1/instrument_1/labview_data/sample_vertical_translate_user_setpoint",
	"entry1/instrument_1/labview_data/sample_wedge",
	"entry1/instrument_1/labview_data/sample_wedge_user_setpoint",
	"entry1/instrument_1/labview_data/slit_bottom",
	"entry1/instrument_1/labview_data/slit_bottom_user_setpoint",
	"entry1/instrument_1/labview_data/slit_left",
	"entry1/instrument_1/labview_data/slit_left_user_setpoint",
	"entry1/instrument_1/labview_data/slit_right",
	"entry1/instrument_1/labview_data/slit_right_user_setpoint",
	"entry1/instrument_1/labview_data/slit_top",
	"entry1/instrument_1/labview_data/slit_top_user_setpoint",
	"entry1/instrument_1/labview_data/theta2thetaboth",
	"entry1/instrument_1/labview_data/theta2thetaboth_user_setpoint",
	"entry1/instrument_1/name",
	"entry1/instrument_1/source_1/energy",
	"entry1/instrument_1/source_1/name",
	"entry1/instrument_1/source_1/wavelength",
	"entry1/run_id",
	"entry1/sample_1/geometry_1",
	"entry1/sample_1/name",
	"entry1/start_time",
}

// Canonical returns the layout of an intact beamline record, in order.
func Canonical() []string {
	out := make([]string, len(canonical))
	copy(out, canonical)
	return out
}
